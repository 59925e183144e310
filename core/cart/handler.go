package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/api/weberr"
	"github.com/irsalhamdi/civic-events/core/claims"
	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/irsalhamdi/civic-events/core/registration"
	"github.com/irsalhamdi/civic-events/database"
	"github.com/irsalhamdi/civic-events/validate"
	"github.com/sirupsen/logrus"
)

type Catalog interface {
	Product(ctx context.Context, id string) (product.Product, error)
}

type ItemNew struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity"`
}

type ItemUp struct {
	Quantity int `json:"quantity"`
}

// Summary is the cart as shown by the cart widget and the checkout page.
type Summary struct {
	Items        []LineItem        `json:"items"`
	ItemCount    int               `json:"itemCount"`
	Total        int               `json:"total"`
	Registration map[string]Status `json:"registration"`
	Next         Action            `json:"next"`
}

func Summarize(st State) Summary {
	items := st.Items
	if items == nil {
		items = []LineItem{}
	}
	return Summary{
		Items:        items,
		ItemCount:    st.ItemCount(),
		Total:        st.Total(),
		Registration: st.Statuses(),
		Next:         NextAction(st, ""),
	}
}

type ItemResult struct {
	Item    LineItem `json:"item"`
	Message string   `json:"message,omitempty"`
	Next    Action   `json:"next"`
	Cart    Summary  `json:"cart"`
}

// OpenFromContext opens the cart of the visitor identified on ctx.
func OpenFromContext(ctx context.Context, carts Persister, log logrus.FieldLogger) (*Store, error) {
	clm, err := claims.Get(ctx)
	if err != nil || clm.CartKey == "" {
		return nil, weberr.NotAuthorized(errors.New("visitor session missing"))
	}

	s, err := Open(ctx, clm.CartKey, carts, log.WithField("cart", clm.CartKey))
	if err != nil {
		return nil, fmt.Errorf("opening cart: %w", err)
	}
	return s, nil
}

func HandleShow(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, Summarize(s.State()), http.StatusOK)
	}
}

func HandleDelete(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}
		s.Clear(ctx)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleCreateItem(catalog Catalog, carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(in); err != nil {
			return WebError(err)
		}

		quantity := 1
		if in.Quantity != nil {
			quantity = *in.Quantity
		}
		// rejected before touching the catalog or the cart
		if quantity <= 0 {
			return WebError(&ValidationError{Field: "quantity", Reason: "must be a positive integer"})
		}

		p, err := catalog.Product(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", in.ProductID, err)
		}

		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}

		it, err := s.AddItem(ctx, p, quantity)
		if err != nil {
			return WebError(err)
		}

		st := s.State()
		res := ItemResult{
			Item:    it,
			Message: fmt.Sprintf("%s added to your cart", p.Name),
			Next:    NextAction(st, ""),
			Cart:    Summarize(st),
		}
		return web.Respond(ctx, w, res, http.StatusCreated)
	}
}

func HandleUpdateItem(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}

		if err := s.UpdateItem(ctx, id, up.Quantity); err != nil {
			return WebError(err)
		}
		return web.Respond(ctx, w, Summarize(s.State()), http.StatusOK)
	}
}

func HandleDeleteItem(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}

		s.RemoveItem(ctx, web.Param(r, "id"))
		return web.Respond(ctx, w, Summarize(s.State()), http.StatusOK)
	}
}

func HandleStatus(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}

		id := web.Param(r, "id")
		res := struct {
			ItemID string `json:"itemId"`
			Status Status `json:"status"`
		}{id, s.State().StatusFor(id)}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleNext(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, s.NextAction(web.Query(r, "excluding")), http.StatusOK)
	}
}

// HandleSetRegistration is called by the vendor and volunteer forms on submit.
// The body is the form itself; the response tells the form where to go next.
func HandleSetRegistration(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		var raw json.RawMessage
		if err := web.Decode(w, r, &raw); err != nil && !errors.Is(err, io.EOF) {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}

		it, ok := s.State().Item(id)
		if !ok {
			return weberr.NotFound(fmt.Errorf("item[%s] is not in the cart", id))
		}

		p, err := registration.Decode(it.Product.Kind, raw)
		if err != nil {
			return WebError(&ValidationError{Field: "registrationData", Reason: err.Error()})
		}
		// Clearing goes through DELETE.
		if p == nil {
			return WebError(&ValidationError{Field: "registrationData", Reason: "is required"})
		}

		return setRegistration(ctx, w, s, id, p)
	}
}

// HandleClearRegistration re-opens an item's form for editing.
func HandleClearRegistration(carts Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		s, err := OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}
		if _, ok := s.State().Item(id); !ok {
			return weberr.NotFound(fmt.Errorf("item[%s] is not in the cart", id))
		}

		return setRegistration(ctx, w, s, id, nil)
	}
}

func setRegistration(ctx context.Context, w http.ResponseWriter, s *Store, id string, p registration.Payload) error {
	if err := s.SetRegistration(ctx, id, p); err != nil {
		return WebError(err)
	}

	st := s.State()
	it, _ := st.Item(id)
	res := ItemResult{
		Item: it,
		Next: NextAction(st, id),
		Cart: Summarize(st),
	}
	return web.Respond(ctx, w, res, http.StatusOK)
}

// WebError maps cart errors onto HTTP responses.
func WebError(err error) error {
	var (
		verr *ValidationError
		ferr *validate.FieldError
		rerr *RegistrationRequiredError
		perr *PaymentError
	)

	switch {
	case errors.As(err, &verr):
		return weberr.InvalidField(verr, verr.Field)

	case errors.As(err, &ferr):
		return weberr.InvalidField(ferr, ferr.Field)

	case errors.As(err, &rerr):
		body := struct {
			Error string `json:"error"`
			Next  Action `json:"next"`
		}{rerr.Error(), rerr.Next}
		return weberr.Conflict(rerr, body)

	case errors.Is(err, ErrCheckoutInFlight):
		return weberr.NewError(err, err.Error(), http.StatusConflict)

	case errors.As(err, &perr):
		return weberr.Unavailable(perr)
	}

	return err
}
