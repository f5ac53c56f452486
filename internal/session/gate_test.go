package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

func TestGate(t *testing.T) {
	customer := &model.Session{ID: "c", PrincipalID: 1, Role: model.RoleCustomer}
	employee := &model.Session{ID: "e", PrincipalID: 2, Role: model.RoleEmployee}
	manager := &model.Session{ID: "m", PrincipalID: 3, Role: model.RoleManager}

	tests := []struct {
		name string
		path string
		s    *model.Session
		want Decision
	}{
		{"public home", "/", nil, Allow()},
		{"public rooms", "/rooms/12", nil, Allow()},
		{"anon booking prompts", "/booking?roomId=4", nil, PromptLogin("/booking?roomId=4")},
		{"anon favorites prompts", "/favorites", nil, PromptLogin("/favorites")},
		{"anon my bookings prompts", "/my-bookings/9", nil, PromptLogin("/my-bookings/9")},
		{"anon checkout redirects", "/checkout", nil, RedirectTo("/login?returnTo=%2Fcheckout")},
		{"anon profile redirects", "/profile", nil, RedirectTo("/login?returnTo=%2Fprofile")},
		{"anon admin redirects", "/admin/rooms", nil, RedirectTo("/login?returnTo=%2Fadmin%2Frooms")},
		{"customer books", "/booking", customer, Allow()},
		{"customer profile", "/profile", customer, Allow()},
		{"customer not employee", "/employee", customer, RedirectTo("/")},
		{"employee backoffice", "/employee/bookings", employee, Allow()},
		{"manager backoffice", "/employee", manager, Allow()},
		{"employee not admin", "/admin", employee, RedirectTo("/")},
		{"manager admin", "/admin/employees", manager, Allow()},
		{"staff cannot book", "/booking", employee, RedirectTo("/")},
		{"prefix must be a segment", "/bookings-info", nil, Allow()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gate(tt.path, tt.s))
		})
	}
}

func TestGate_ZeroPrincipalIsAnonymous(t *testing.T) {
	assert.Equal(t, PromptLogin("/booking"), Gate("/booking", &model.Session{Role: model.RoleCustomer}))
}
