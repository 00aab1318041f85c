package events

// SNSMessageAttribute is a typed message attribute.
type SNSMessageAttribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

// SNSMessageAttributes maps attribute names to attributes.
type SNSMessageAttributes map[string]SNSMessageAttribute

// SNSMessage is the notification delivered by a topic.
type SNSMessage struct {
	SignatureVersion  string               `json:"SignatureVersion"`
	Timestamp         string               `json:"Timestamp"`
	Signature         string               `json:"Signature"`
	SigningCertURL    string               `json:"SigningCertUrl"`
	MessageID         string               `json:"MessageId" validate:"required"`
	Message           string               `json:"Message"`
	MessageAttributes SNSMessageAttributes `json:"MessageAttributes"`
	Type              string               `json:"Type"`
	UnsubscribeURL    string               `json:"UnsubscribeUrl"`
	TopicArn          string               `json:"TopicArn" validate:"required"`
	Subject           string               `json:"Subject"`
}

// SNSEventRecord wraps one message with its subscription metadata.
type SNSEventRecord struct {
	EventVersion         string     `json:"EventVersion"`
	EventSubscriptionArn string     `json:"EventSubscriptionArn"`
	EventSource          string     `json:"EventSource"`
	SNS                  SNSMessage `json:"Sns"`
}

// SNSEvent is a batch of topic notifications.
type SNSEvent struct {
	Records []SNSEventRecord `json:"Records" validate:"dive"`
}
