package session

import (
	"net/url"
	"strings"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// Action is what the presentation layer must do with a navigation.
type Action string

const (
	ActionAllow       Action = "allow"
	ActionPromptLogin Action = "prompt_login"
	ActionRedirect    Action = "redirect"
)

// Decision is the result of the route gate.  ReturnPath is set for
// PromptLogin (where to continue after logging in); RedirectTo for
// Redirect.
type Decision struct {
	Action     Action `json:"action"`
	ReturnPath string `json:"returnPath,omitempty"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

func Allow() Decision { return Decision{Action: ActionAllow} }

func PromptLogin(returnPath string) Decision {
	return Decision{Action: ActionPromptLogin, ReturnPath: returnPath}
}

func RedirectTo(path string) Decision { return Decision{Action: ActionRedirect, RedirectTo: path} }

// guard protects one path prefix.  prompt selects the in-place login
// prompt over a redirect for anonymous visitors.
type guard struct {
	prefix string
	allow  func(*model.Session) bool
	prompt bool
}

var guards = []guard{
	{prefix: "/booking", allow: (*model.Session).IsCustomer, prompt: true},
	{prefix: "/favorites", allow: (*model.Session).IsCustomer, prompt: true},
	{prefix: "/my-bookings", allow: (*model.Session).IsCustomer, prompt: true},
	{prefix: "/checkout", allow: (*model.Session).IsCustomer},
	{prefix: "/profile", allow: (*model.Session).IsCustomer},
	{prefix: "/employee", allow: (*model.Session).IsStaff},
	{prefix: "/admin", allow: (*model.Session).IsManager},
}

// Gate decides whether the holder of s may open path.  Public paths always
// allow.  Anonymous visitors get an in-place login prompt on the booking,
// favorites and my-bookings pages and a redirect to /login everywhere else;
// logged-in users without the right role go back to the home page.
func Gate(path string, s *model.Session) Decision {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	bare := path
	if i := strings.IndexAny(bare, "?#"); i >= 0 {
		bare = bare[:i]
	}
	for _, g := range guards {
		if bare != g.prefix && !strings.HasPrefix(bare, g.prefix+"/") {
			continue
		}
		switch {
		case g.allow(s):
			return Allow()
		case !s.IsAuthenticated() && g.prompt:
			return PromptLogin(path)
		case !s.IsAuthenticated():
			return RedirectTo("/login?returnTo=" + url.QueryEscape(path))
		default:
			return RedirectTo("/")
		}
	}
	return Allow()
}
