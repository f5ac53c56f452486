package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/booking"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// Checkout is the booking flow as booking.Orchestrator exposes it.
type Checkout interface {
	Start(ctx context.Context, s *model.Session, sel booking.Selection) (*booking.Draft, error)
	Current(ctx context.Context, s *model.Session) (*booking.Draft, error)
	Discard(ctx context.Context, s *model.Session) error
	SaveGuest(ctx context.Context, s *model.Session, g model.GuestInfo) (*booking.Draft, error)
	SaveCompanions(ctx context.Context, s *model.Session, list []model.Companion) (*booking.Draft, error)
	SavePayment(ctx context.Context, s *model.Session, p model.PaymentSelection) (*booking.Draft, error)
	GoTo(ctx context.Context, s *model.Session, step booking.Step) (*booking.Draft, error)
	Submit(ctx context.Context, s *model.Session) (*booking.CheckoutView, error)
}

// CheckoutHandler serves the multi-step checkout.  Every route needs a
// customer session.
type CheckoutHandler struct {
	Flow Checkout
}

func NewCheckoutHandler(flow Checkout) *CheckoutHandler { return &CheckoutHandler{Flow: flow} }

type companionsReq struct {
	Companions []model.Companion `json:"companions"`
}

type stepReq struct {
	Step booking.Step `json:"step"`
}

func draftResp(c echo.Context, code int, d *booking.Draft, err error) error {
	if err != nil {
		return fail(err)
	}
	return c.JSON(code, d.Redacted())
}

// Start handles POST /v1/checkout with the room page's selection.
func (h *CheckoutHandler) Start(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var sel booking.Selection
	if err := bind(c, &sel); err != nil {
		return err
	}
	d, err := h.Flow.Start(c.Request().Context(), s, sel)
	return draftResp(c, http.StatusCreated, d, err)
}

// Get handles GET /v1/checkout.
func (h *CheckoutHandler) Get(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	d, err := h.Flow.Current(c.Request().Context(), s)
	return draftResp(c, http.StatusOK, d, err)
}

// Cancel handles DELETE /v1/checkout.
func (h *CheckoutHandler) Cancel(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	if err := h.Flow.Discard(c.Request().Context(), s); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Guest handles PUT /v1/checkout/guest.
func (h *CheckoutHandler) Guest(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var g model.GuestInfo
	if err := bind(c, &g); err != nil {
		return err
	}
	d, err := h.Flow.SaveGuest(c.Request().Context(), s, g)
	return draftResp(c, http.StatusOK, d, err)
}

// Companions handles PUT /v1/checkout/companions.
func (h *CheckoutHandler) Companions(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var req companionsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.Flow.SaveCompanions(c.Request().Context(), s, req.Companions)
	return draftResp(c, http.StatusOK, d, err)
}

// Payment handles PUT /v1/checkout/payment.
func (h *CheckoutHandler) Payment(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var p model.PaymentSelection
	if err := bind(c, &p); err != nil {
		return err
	}
	d, err := h.Flow.SavePayment(c.Request().Context(), s, p)
	return draftResp(c, http.StatusOK, d, err)
}

// Step handles PUT /v1/checkout/step, the back/forward navigation.
func (h *CheckoutHandler) Step(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	var req stepReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if !req.Step.Valid() {
		return badRequest("unknown step")
	}
	d, err := h.Flow.GoTo(c.Request().Context(), s, req.Step)
	return draftResp(c, http.StatusOK, d, err)
}

// Submit handles POST /v1/checkout/submit.  A booking whose detail is
// still being reconciled is answered with 202.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	v, err := h.Flow.Submit(c.Request().Context(), s)
	if err != nil {
		return fail(err)
	}
	code := http.StatusCreated
	if v.Reconciling {
		code = http.StatusAccepted
	}
	return c.JSON(code, v)
}
