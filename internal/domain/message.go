package domain

// Group represents a resolved dialog/channel target.
type Group struct {
	ID   int64
	Name string
}

// MediaRef is an opaque handle to a message's media, interpreted only by the
// Telegram client. It stays valid for one run; Telegram may expire it server
// side at any time.
type MediaRef any

// Attachment describes a named file attached to a message. Messages without a
// named document never produce one.
type Attachment struct {
	Name string
	Size int64
	Ref  MediaRef
}

// Message is the read-only view of a remote message the filter works on.
// Attachment is nil when the message carries no downloadable file.
type Message struct {
	ID         int64
	Attachment *Attachment
}

// EligibleMessage is a message that passed the filter. It carries everything
// needed to download the attachment without re-querying the history.
type EligibleMessage struct {
	GroupID  int64
	ID       int64
	FileName string
	Size     int64
	Ref      MediaRef
}
