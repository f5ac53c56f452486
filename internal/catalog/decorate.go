package catalog

import (
	"fmt"
	"strings"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

const (
	LangEN = "en"
	LangVI = "vi"
)

// typeNames maps the backend's English room type names to Vietnamese.
var typeNames = map[string]string{
	"standard":  "Phòng Tiêu Chuẩn",
	"superior":  "Phòng Superior",
	"deluxe":    "Phòng Deluxe",
	"suite":     "Phòng Suite",
	"family":    "Phòng Gia Đình",
	"twin":      "Phòng Hai Giường",
	"double":    "Phòng Đôi",
	"single":    "Phòng Đơn",
	"executive": "Phòng Hạng Sang",
}

// typeImages holds the gallery for each known type keyword.
var typeImages = map[string][]string{
	"standard": {"/img/rooms/standard-1.jpg", "/img/rooms/standard-2.jpg"},
	"superior": {"/img/rooms/superior-1.jpg", "/img/rooms/superior-2.jpg"},
	"deluxe":   {"/img/rooms/deluxe-1.jpg", "/img/rooms/deluxe-2.jpg", "/img/rooms/deluxe-3.jpg"},
	"suite":    {"/img/rooms/suite-1.jpg", "/img/rooms/suite-2.jpg", "/img/rooms/suite-3.jpg"},
	"family":   {"/img/rooms/family-1.jpg", "/img/rooms/family-2.jpg"},
}

var defaultImages = []string{"/img/rooms/default.jpg"}

// keyword is the first known type word contained in name.
func keyword(name string) string {
	n := strings.ToLower(name)
	for _, k := range []string{"standard", "superior", "deluxe", "suite", "family", "twin", "double", "single", "executive"} {
		if strings.Contains(n, k) {
			return k
		}
	}
	return ""
}

// translate returns the display name of a room type in lang.  Unknown
// names and languages pass through untouched.
func translate(name, lang string) string {
	if lang != LangVI {
		return name
	}
	if vi, ok := typeNames[keyword(name)]; ok {
		return vi
	}
	return name
}

func images(name string) []string {
	if imgs, ok := typeImages[keyword(name)]; ok {
		return append([]string(nil), imgs...)
	}
	return append([]string(nil), defaultImages...)
}

func decorate(r model.Room, t model.RoomType, lang string) model.RoomView {
	name := translate(t.Name, lang)
	display := fmt.Sprintf("%s %s", name, r.RoomNumber)
	if lang == LangVI {
		display = fmt.Sprintf("%s số %s", name, r.RoomNumber)
	}
	return model.RoomView{
		Room:        r,
		Type:        t,
		DisplayName: display,
		Images:      images(t.Name),
	}
}
