package account

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/civic-events/api/web"
)

func HandleShow(m *Monitor) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		st := m.Status()

		res := struct {
			Status
			Connected bool `json:"connected"`
		}{st, st.Connected()}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}
