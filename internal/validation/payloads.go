package validation

import (
	"fmt"
	"strings"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// Guest validates the primary guest in form order: name, email, phone, ID
// card.
func Guest(g model.GuestInfo) Result {
	var c collector
	c.check(!blank(g.FullName), "fullName", "Full name is required")
	c.check(Email(g.Email), "email", "Email address is invalid")
	c.check(Phone(g.Phone), "phone", "Phone number must look like XXX-XXXX-XXXXX")
	c.check(IDCard(g.IDCard), "idCard", fmt.Sprintf("ID card must be exactly %d characters", IDCardLen))
	return c.result()
}

// Companions validates the companions list for a booking of guestCount
// people.  With one guest the list must be empty and nothing else is
// checked.
func Companions(guestCount int, list []model.Companion) Result {
	var c collector
	want := guestCount - 1
	if want < 0 {
		want = 0
	}
	c.check(len(list) == want, "companions", fmt.Sprintf("Expected %d companion(s), got %d", want, len(list)))
	for i, cp := range list {
		p := fmt.Sprintf("companions[%d].", i)
		c.check(!blank(cp.FullName), p+"fullName", fmt.Sprintf("Companion %d: full name is required", i+1))
		c.check(!blank(cp.IDCard), p+"idCard", fmt.Sprintf("Companion %d: ID card is required", i+1))
		c.check(!cp.DateOfBirth.IsZero(), p+"dateOfBirth", fmt.Sprintf("Companion %d: date of birth is required", i+1))
		c.check(!blank(cp.Gender), p+"gender", fmt.Sprintf("Companion %d: gender is required", i+1))
	}
	return c.result()
}

// Payment validates a payment selection.  savedCardOnFile tells whether the
// customer has a card stored on the profile for the "use saved card" option.
func Payment(p *model.PaymentSelection, savedCardOnFile bool) Result {
	var c collector
	if p == nil || p.Method == "" {
		c.check(false, "method", "Please choose a payment method")
		return c.result()
	}
	if !p.Method.Valid() || !p.Consistent() {
		c.check(false, "method", "Unsupported payment method")
		return c.result()
	}
	switch p.Method {
	case model.PaymentCreditCard:
		card := p.Card
		if card.UseSavedCard {
			c.check(savedCardOnFile, "card.useSavedCard", "No saved card on file")
			break
		}
		c.check(CardNumber(card.CardNumber), "card.cardNumber", "Card number is invalid")
		c.check(!blank(card.CardName), "card.cardName", "Name on card is required")
		c.check(Expiry(card.Expiry), "card.expiry", "Expiry must be MM/YY")
		c.check(CVV(card.CVV), "card.cvv", "CVV must be 3 or 4 digits")
	case model.PaymentBankTransfer:
		c.check(p.Transfer.TransferConfirmed, "transfer.transferConfirmed", "Please confirm the bank transfer")
	}
	return c.result()
}

// Selection validates a room/date/guest choice before a draft is created.
// capacity is the room type's maximum occupancy; zero skips that check.
func Selection(roomID int64, checkIn, checkOut model.Date, guests, capacity, maxNights int) Result {
	var c collector
	c.check(roomID > 0, "roomId", "Please choose a room")
	c.check(DateRange(checkIn, checkOut, maxNights), "dates", dateRangeMessage(maxNights))
	c.check(guests >= 1, "guestCount", "At least one guest is required")
	if capacity > 0 {
		c.check(guests <= capacity, "guestCount", fmt.Sprintf("This room sleeps at most %d guest(s)", capacity))
	}
	return c.result()
}

func dateRangeMessage(maxNights int) string {
	if maxNights > 0 {
		return fmt.Sprintf("Check-out must be after check-in and within %d nights", maxNights)
	}
	return "Check-out must be after check-in"
}

// Customer validates a profile update.
func Customer(cu model.Customer) Result {
	var c collector
	c.check(!blank(cu.FullName), "fullName", "Full name is required")
	c.check(Email(cu.Email), "email", "Email address is invalid")
	c.check(blank(cu.Phone) || Phone(cu.Phone), "phone", "Phone number must look like XXX-XXXX-XXXXX")
	c.check(blank(cu.IDCard) || IDCard(cu.IDCard), "idCard", fmt.Sprintf("ID card must be exactly %d characters", IDCardLen))
	return c.result()
}

// Registration validates the sign-up form.
func Registration(r model.Registration) Result {
	var c collector
	c.check(!blank(r.FullName), "fullName", "Full name is required")
	c.check(Email(r.Email), "email", "Email address is invalid")
	c.check(Phone(r.Phone), "phone", "Phone number must look like XXX-XXXX-XXXXX")
	c.check(Password(r.Password), "password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLen))
	return c.result()
}

// Login validates the login form.
func Login(cr model.Credentials) Result {
	var c collector
	c.check(Email(cr.Email), "email", "Email address is invalid")
	c.check(!blank(cr.Password), "password", "Password is required")
	return c.result()
}

// Employee validates a back-office staff record.  The password is required
// only when creating.
func Employee(e model.Employee, creating bool) Result {
	var c collector
	c.check(!blank(e.FullName), "fullName", "Full name is required")
	c.check(Email(e.Email), "email", "Email address is invalid")
	c.check(blank(e.Phone) || Phone(e.Phone), "phone", "Phone number must look like XXX-XXXX-XXXXX")
	c.check(e.Role.IsStaff(), "role", "Role must be employee or manager")
	if creating || e.Password != "" {
		c.check(Password(e.Password), "password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLen))
	}
	return c.result()
}

// RoomType validates a room type record.
func RoomType(t model.RoomType) Result {
	var c collector
	c.check(!blank(t.Name), "name", "Name is required")
	c.check(t.PricePerNight > 0, "pricePerNight", "Price per night must be positive")
	c.check(t.Capacity >= 1, "capacity", "Capacity must be at least 1")
	return c.result()
}

// Room validates a room record.
func Room(r model.Room) Result {
	var c collector
	c.check(!blank(r.RoomNumber), "roomNumber", "Room number is required")
	c.check(r.RoomTypeID > 0, "roomTypeId", "Room type is required")
	c.check(r.Status == "" || r.Status.Valid(), "status", "Unknown room status")
	return c.result()
}

// CardNumber accepts 13 to 19 digits (spaces and dashes ignored) passing the
// Luhn check.
func CardNumber(s string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		ch := digits[i]
		if ch < '0' || ch > '9' {
			return false
		}
		d := int(ch - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Expiry accepts MM/YY with a month between 01 and 12.  Whether the card
// has already expired is the verifier's concern.
func Expiry(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != '/' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	month := int(s[0]-'0')*10 + int(s[1]-'0')
	return month >= 1 && month <= 12
}

// CVV accepts three or four digits.
func CVV(s string) bool {
	if len(s) != 3 && len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
