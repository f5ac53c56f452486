package model

// GuestInfo is the primary guest captured on the first checkout step.
// ArrivalTime and DepartureTime hold the chosen check-in/check-out hour
// ("14:00"); they are informational and travel with the special requests.
type GuestInfo struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	IDCard          string `json:"idCard"`
	DateOfBirth     Date   `json:"dateOfBirth"`
	Gender          string `json:"gender"`
	Address         string `json:"address"`
	SpecialRequests string `json:"specialRequests"`
	ArrivalTime     string `json:"arrivalTime"`
	DepartureTime   string `json:"departureTime"`
}

// Record converts the guest into the detail's guest record.
func (g GuestInfo) Record() GuestRecord {
	return GuestRecord{
		FullName:    g.FullName,
		IDCard:      g.IDCard,
		DateOfBirth: g.DateOfBirth,
		Gender:      g.Gender,
		Email:       g.Email,
		Phone:       g.Phone,
		IsPrimary:   true,
	}
}

// Companion is a guest beyond the first.  Every field is required.
type Companion struct {
	FullName    string `json:"fullName"`
	IDCard      string `json:"idCard"`
	DateOfBirth Date   `json:"dateOfBirth"`
	Gender      string `json:"gender"`
}

func (c Companion) Record() GuestRecord {
	return GuestRecord{
		FullName:    c.FullName,
		IDCard:      c.IDCard,
		DateOfBirth: c.DateOfBirth,
		Gender:      c.Gender,
	}
}

// CardDetails is the CreditCard variant of a payment selection.  When
// UseSavedCard is set the four card fields are ignored and the card on the
// customer's profile is charged instead.
type CardDetails struct {
	CardNumber   string `json:"cardNumber,omitempty"`
	CardName     string `json:"cardName,omitempty"`
	Expiry       string `json:"expiry,omitempty"` // MM/YY
	CVV          string `json:"cvv,omitempty"`
	UseSavedCard bool   `json:"useSavedCard"`
	SaveCard     bool   `json:"saveCard"`
}

// TransferDetails is the BankTransfer variant.
type TransferDetails struct {
	TransferConfirmed bool `json:"transferConfirmed"`
}

// PaymentSelection is a tagged union over payment methods: Method names the
// active variant and only that variant's payload may be set.  PayPal and
// Cash carry no payload.
type PaymentSelection struct {
	Method   PaymentMethod    `json:"method"`
	Card     *CardDetails     `json:"card,omitempty"`
	Transfer *TransferDetails `json:"transfer,omitempty"`
}

func CreditCard(d CardDetails) PaymentSelection {
	return PaymentSelection{Method: PaymentCreditCard, Card: &d}
}

func PayPal() PaymentSelection { return PaymentSelection{Method: PaymentPayPal} }

func BankTransfer(confirmed bool) PaymentSelection {
	return PaymentSelection{Method: PaymentBankTransfer, Transfer: &TransferDetails{TransferConfirmed: confirmed}}
}

func Cash() PaymentSelection { return PaymentSelection{Method: PaymentCash} }

// Consistent reports whether exactly the payload of Method is present.
func (p PaymentSelection) Consistent() bool {
	switch p.Method {
	case PaymentCreditCard:
		return p.Card != nil && p.Transfer == nil
	case PaymentBankTransfer:
		return p.Transfer != nil && p.Card == nil
	case PaymentPayPal, PaymentCash:
		return p.Card == nil && p.Transfer == nil
	}
	return false
}

// NeedsVerification is true for methods checked with the payment provider
// before a payment record is written.
func (p PaymentSelection) NeedsVerification() bool {
	return p.Method == PaymentCreditCard || p.Method == PaymentPayPal
}
