package blog

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Messages are the user-facing strings of one locale.
type Messages struct {
	LoadMore       string
	LoadMoreFailed string
	Retry          string
	PreviousPost   string
	NextPost       string
	EditedAt       string
	ReadingMinutes string
	NotFound       string
	ServerError    string
	ExitPreview    string
	Loading        string
}

type localeData struct {
	months   [12]string
	at       string
	messages Messages
}

var locales = []struct {
	tag  language.Tag
	data localeData
}{
	{language.BrazilianPortuguese, localeData{
		months: [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
		at:     "às",
		messages: Messages{
			LoadMore:       "Carregar mais posts",
			LoadMoreFailed: "Não foi possível carregar mais posts.",
			Retry:          "Tentar novamente",
			PreviousPost:   "Post anterior",
			NextPost:       "Próximo post",
			EditedAt:       "* editado em",
			ReadingMinutes: "min",
			NotFound:       "Post não encontrado.",
			ServerError:    "Algo deu errado. Tente novamente mais tarde.",
			ExitPreview:    "Sair do modo preview",
			Loading:        "Carregando...",
		},
	}},
	{language.AmericanEnglish, localeData{
		months: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		at:     "at",
		messages: Messages{
			LoadMore:       "Load more posts",
			LoadMoreFailed: "Couldn't load more posts.",
			Retry:          "Try again",
			PreviousPost:   "Previous post",
			NextPost:       "Next post",
			EditedAt:       "* edited on",
			ReadingMinutes: "min",
			NotFound:       "Post not found.",
			ServerError:    "Something went wrong. Please try again later.",
			ExitPreview:    "Exit preview mode",
			Loading:        "Loading...",
		},
	}},
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// Formatter renders dates and UI strings for one locale and time zone.
type Formatter struct {
	tag  language.Tag
	loc  *time.Location
	data localeData
}

// NewFormatter picks the closest supported locale to the BCP 47 tag locale.
// Unsupported tags fall back to Brazilian Portuguese.
func NewFormatter(locale string, loc *time.Location) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("blog: parse locale %q: %w", locale, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	_, idx, _ := localeMatcher.Match(tag)
	return &Formatter{tag: locales[idx].tag, loc: loc, data: locales[idx].data}, nil
}

// Lang is the matched locale as a BCP 47 string, for the html lang attribute.
func (f *Formatter) Lang() string {
	return f.tag.String()
}

// Messages returns the locale's UI strings.
func (f *Formatter) Messages() Messages {
	return f.data.messages
}

// ListDate formats t as "02 jan 2006". A nil time yields "".
func (f *Formatter) ListDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	lt := t.In(f.loc)
	return fmt.Sprintf("%02d %s %d", lt.Day(), f.data.months[lt.Month()-1], lt.Year())
}

// PostDate formats t as "2 jan 2006". A nil time yields "".
func (f *Formatter) PostDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	lt := t.In(f.loc)
	return strconv.Itoa(lt.Day()) + " " + f.data.months[lt.Month()-1] + " " + strconv.Itoa(lt.Year())
}

// EditedAt formats t as "2 jan 2006, às 15:04". A nil time yields "".
func (f *Formatter) EditedAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return f.PostDate(t) + ", " + f.data.at + " " + t.In(f.loc).Format("15:04")
}
