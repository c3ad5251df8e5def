// ABOUTME: Builtin plugin shipping the stock ui.open_url action and camera.motion signal.

package plugin

import (
	"context"
	"fmt"
	"time"

	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/registry"
)

// defaultMotionKey is the state key camera.motion writes when the webhook
// payload names none.
const defaultMotionKey = "camera.front_door.motion"

// RegisterBuiltin wires the stock action and signal every hearth install
// carries.
func RegisterBuiltin(reg *Registry) error {
	reg.Actions.Register("ui.open_url",
		func(ctx context.Context, payload map[string]any) error {
			url, ok := payload["url"]
			if !ok || url == nil || fmt.Sprint(url) == "" {
				return registry.NewValidationError("url is required")
			}
			return reg.Events.Emit(event.New("ui.open_url",
				event.Source{Kind: "action", ID: "ui.open_url"},
				map[string]any{"url": fmt.Sprint(url)}))
		},
		"Open a URL in the client's default browser",
		registry.Schema{"url": {Type: "string", Required: true}},
	)

	reg.Signals.Register("camera.motion",
		func(ctx context.Context, payload map[string]any) error {
			key := defaultMotionKey
			if k, ok := payload["key"]; ok && k != nil && fmt.Sprint(k) != "" {
				key = fmt.Sprint(k)
			}
			active := true
			if a, ok := payload["active"].(bool); ok {
				active = a
			}
			var ttl time.Duration
			if raw, ok := payload["ttl_seconds"]; ok && raw != nil {
				secs, ok := raw.(float64)
				if !ok {
					return registry.NewValidationError("ttl_seconds must be a number")
				}
				ttl = time.Duration(secs * float64(time.Second))
			}
			return reg.State.Set(key, map[string]any{"active": active}, ttl,
				event.Source{Kind: "signal", ID: "camera.motion"})
		},
		"Handle camera motion detection webhook",
		registry.Schema{
			"key":         {Type: "string", Default: defaultMotionKey},
			"active":      {Type: "boolean", Default: true},
			"ttl_seconds": {Type: "number"},
		},
	)

	return nil
}
