package core

// StatusKind enumerates the states an operation status can be in.
type StatusKind int

const (
	KindIdle StatusKind = iota
	KindLoading
	KindSuccess
	KindError
)

// Status is the observable outcome of a controller operation. Idle and
// Loading carry no message; Success and Error carry a short human-readable
// message suitable for direct display. Consumers switch on Kind.
type Status struct {
	Kind    StatusKind
	Message string
}

func StatusIdle() Status    { return Status{Kind: KindIdle} }
func StatusLoading() Status { return Status{Kind: KindLoading} }

func StatusSuccess(message string) Status {
	return Status{Kind: KindSuccess, Message: message}
}

func StatusError(message string) Status {
	return Status{Kind: KindError, Message: message}
}

func (s Status) IsIdle() bool    { return s.Kind == KindIdle }
func (s Status) IsLoading() bool { return s.Kind == KindLoading }
func (s Status) IsSuccess() bool { return s.Kind == KindSuccess }
func (s Status) IsError() bool   { return s.Kind == KindError }

func (k StatusKind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}
