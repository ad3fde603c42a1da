package models

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
