package bridge

// TransportError wraps a failed broker operation.
type TransportError struct {
	Op    string // "publish" or "subscribe"
	Topic string
	Err   error
}

func (e *TransportError) Error() string {
	return "mqtt " + e.Op + " " + e.Topic + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
