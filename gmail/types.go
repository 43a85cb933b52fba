package gmail

// Message holds the normalized information extracted from a Gmail message.
// Header values are copied as-is; a missing header leaves its field empty.
type Message struct {
	ID      string // Gmail's internal message ID
	Subject string
	From    string
	Date    string // raw Date header, human readable
	Body    string // decoded plain text body, bounded
}
