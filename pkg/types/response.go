package types

// Envelope is the uniform success/error response body.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Success(data interface{}, message string) Envelope {
	if message == "" {
		message = "OK"
	}
	return Envelope{Success: true, Message: message, Data: data}
}

func Error(message string) Envelope {
	return Envelope{Success: false, Message: message}
}
