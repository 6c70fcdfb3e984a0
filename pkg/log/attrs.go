package log

import "log/slog"

func SequenceID[T ~string](id T) slog.Attr {
	return slog.String("sequence_id", string(id))
}

func Step(idx int) slog.Attr {
	return slog.Int("step", idx)
}

func Resource[T ~string](res T) slog.Attr {
	return slog.String("resource", string(res))
}

func Queue[T ~string](name T) slog.Attr {
	return slog.String("queue", string(name))
}

func EventType[T ~string](typ T) slog.Attr {
	return slog.String("event_type", string(typ))
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
