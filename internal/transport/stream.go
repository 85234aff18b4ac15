package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StreamSnapshots serves a live subscription as server-sent events. It
// subscribes when the request starts and unsubscribes when the client goes
// away. Only the newest pending snapshot is kept for slow clients. Errors
// raised before the stream starts are answered with a 500; later ones only
// end the stream.
func StreamSnapshots[T any](w http.ResponseWriter, r *http.Request, event string, watch func(context.Context, func(T)) (func(), error)) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return errors.New("streaming unsupported")
	}

	ctx := r.Context()
	updates := make(chan T, 1)
	push := func(snapshot T) {
		for {
			select {
			case updates <- snapshot:
				return
			case <-ctx.Done():
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	}

	stop, err := watch(ctx, push)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "subscription failed", nil)
		return err
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot := <-updates:
			raw, err := json.Marshal(snapshot)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}
