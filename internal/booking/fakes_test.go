package booking

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/apiclient"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/repository"
)

// fakeBackend records every write and lets tests inject failures per
// operation.
type fakeBackend struct {
	mu sync.Mutex

	available  bool
	availErr   error
	customer   model.Customer
	getCustErr error

	updateCustErr   error
	createBookErr   error
	updateBookErr   error
	createPayErr    error
	saveCardErr     error
	createDetailErr error
	listDetailsErr  error

	customerUpdates []model.Customer
	bookings        []model.Booking
	patches         []model.BookingPatch
	payments        []model.Payment
	cards           []model.PaymentCard
	details         []model.BookingDetail
	availCalls      int
	availDelay      time.Duration
	detailsDelay    time.Duration
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		available: true,
		customer: model.Customer{
			CustomerID: 7, FullName: "Tran Thi B", Email: "b@hotel.vn",
			Phone: "090-1234-56789", IDCard: "012345678901", Gender: "female",
		},
	}
}

func (f *fakeBackend) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.customerUpdates) + len(f.bookings) + len(f.patches) + len(f.payments) + len(f.cards) + len(f.details)
}

func (f *fakeBackend) CheckAvailability(context.Context, int64, model.Date, model.Date) (bool, error) {
	time.Sleep(f.availDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availCalls++
	return f.available, f.availErr
}

func (f *fakeBackend) GetCustomer(context.Context, int64) (*model.Customer, error) {
	if f.getCustErr != nil {
		return nil, f.getCustErr
	}
	c := f.customer
	return &c, nil
}

func (f *fakeBackend) UpdateCustomer(_ context.Context, cu *model.Customer) (*model.Customer, error) {
	if f.updateCustErr != nil {
		return nil, f.updateCustErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerUpdates = append(f.customerUpdates, *cu)
	f.customer = *cu
	return cu, nil
}

func (f *fakeBackend) CreateBooking(_ context.Context, b *model.Booking) (*model.Booking, error) {
	if f.createBookErr != nil {
		return nil, f.createBookErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	nb := *b
	nb.BookingID = int64(100 + len(f.bookings))
	f.bookings = append(f.bookings, nb)
	return &nb, nil
}

func (f *fakeBackend) UpdateBooking(_ context.Context, id int64, p model.BookingPatch) (*model.Booking, error) {
	if f.updateBookErr != nil {
		return nil, f.updateBookErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, p)
	for i := range f.bookings {
		if f.bookings[i].BookingID != id {
			continue
		}
		b := &f.bookings[i]
		if p.PaymentID != nil {
			b.PaymentID = p.PaymentID
		}
		if p.PaymentStatus != nil {
			b.PaymentStatus = *p.PaymentStatus
		}
		if p.BookingStatus != nil {
			b.BookingStatus = *p.BookingStatus
		}
		out := *b
		return &out, nil
	}
	return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Status: 404}
}

func (f *fakeBackend) CreatePayment(_ context.Context, p *model.Payment) (*model.Payment, error) {
	if f.createPayErr != nil {
		return nil, f.createPayErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	np := *p
	np.PaymentID = int64(500 + len(f.payments))
	f.payments = append(f.payments, np)
	return &np, nil
}

func (f *fakeBackend) SavePaymentCard(_ context.Context, c *model.PaymentCard) (*model.PaymentCard, error) {
	if f.saveCardErr != nil {
		return nil, f.saveCardErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = append(f.cards, *c)
	return c, nil
}

func (f *fakeBackend) CreateBookingDetail(_ context.Context, d *model.BookingDetail) (*model.BookingDetail, error) {
	if f.createDetailErr != nil {
		return nil, f.createDetailErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	nd := *d
	nd.DetailID = int64(900 + len(f.details))
	f.details = append(f.details, nd)
	return &nd, nil
}

func (f *fakeBackend) BookingDetails(_ context.Context, bookingID int64) ([]model.BookingDetail, error) {
	if f.listDetailsErr != nil {
		return nil, f.listDetailsErr
	}
	defer time.Sleep(f.detailsDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BookingDetail
	for _, d := range f.details {
		if d.BookingID == bookingID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeRooms struct{ view model.RoomView }

func (f fakeRooms) Get(_ context.Context, id int64, _ string) (*model.RoomView, error) {
	if id != f.view.RoomID {
		return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Status: 404}
	}
	v := f.view
	return &v, nil
}

type memJournal struct {
	mu   sync.Mutex
	rows map[string]model.Submission
}

func newMemJournal() *memJournal { return &memJournal{rows: map[string]model.Submission{}} }

func (j *memJournal) Start(_ context.Context, s *model.Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := *s
	cp.CreatedAt, cp.UpdatedAt = time.Now(), time.Now()
	j.rows[s.ID] = cp
	return nil
}

func (j *memJournal) Update(_ context.Context, s *model.Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	old, ok := j.rows[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *s
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = time.Now()
	j.rows[s.ID] = cp
	return nil
}

func (j *memJournal) Get(_ context.Context, id string) (*model.Submission, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s, ok := j.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (j *memJournal) ListByState(_ context.Context, st model.SubmissionState, limit int) ([]model.Submission, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []model.Submission
	for _, s := range j.rows {
		if s.State == st && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (j *memJournal) Claim(_ context.Context, id string, from, to model.SubmissionState) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s, ok := j.rows[id]
	if !ok || s.State != from {
		return false, nil
	}
	s.State = to
	s.UpdatedAt = time.Now()
	j.rows[id] = s
	return true, nil
}

func (j *memJournal) only() model.Submission {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, s := range j.rows {
		return s
	}
	return model.Submission{}
}

type published struct {
	key     string
	payload any
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{key, payload})
	return p.err
}

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.key
	}
	return out
}

type verifierFunc func(ctx context.Context, p model.PaymentSelection, amount float64) error

func (f verifierFunc) Verify(ctx context.Context, p model.PaymentSelection, amount float64) error {
	return f(ctx, p, amount)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
