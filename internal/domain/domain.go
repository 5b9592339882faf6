package domain

type MessageKind int

const (
	KindOther MessageKind = iota
	KindSharing
	KindText
)

func (k MessageKind) String() string {
	switch k {
	case KindSharing:
		return "sharing"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Message is an inbound message handed to the pipeline by a host.
type Message struct {
	Kind    MessageKind
	Content string
}

type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyError
)

func (k ReplyKind) String() string {
	if k == ReplyError {
		return "error"
	}

	return "text"
}

// Reply is an outbound message produced by the pipeline.
type Reply struct {
	Kind    ReplyKind
	Content string
}

func TextReply(content string) Reply {
	return Reply{Kind: ReplyText, Content: content}
}

func ErrorReply(content string) Reply {
	return Reply{Kind: ReplyError, Content: content}
}
