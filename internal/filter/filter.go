// Package filter - единый построитель выборок для списочных страниц консоли:
// поиск по подстроке, фильтры-равенства из выпадающих списков, сортировка и пагинация.
package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/xela07ax/workforce-console/internal/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 1_000_000
)

// Any - значение фильтра "все", которое шлет <Select> по умолчанию.
const Any = "all"

// Params - сырые параметры запроса, не зависящие от типа сущности.
type Params struct {
	Search string
	Equals map[string]string
	Sort   string
	Desc   bool
	Page   int
	Limit  int
}

// ParseParams достает search/sort/order/page/limit и перечисленные equal-фильтры из query-string.
func ParseParams(v url.Values, equalKeys ...string) (Params, error) {
	p := Params{
		Search: strings.TrimSpace(v.Get("search")),
		Sort:   v.Get("sort"),
		Desc:   strings.EqualFold(v.Get("order"), "desc"),
		Equals: make(map[string]string, len(equalKeys)),
	}
	for _, k := range equalKeys {
		if val := strings.TrimSpace(v.Get(k)); val != "" && val != Any {
			p.Equals[k] = val
		}
	}

	var err error
	if p.Page, err = intParam(v, "page", 1); err != nil {
		return Params{}, err
	}
	if p.Page > MaxPage {
		return Params{}, fmt.Errorf("%w: page must not exceed %d", domain.ErrValidation, MaxPage)
	}
	if p.Limit, err = intParam(v, "limit", DefaultLimit); err != nil {
		return Params{}, err
	}
	p.normalize()
	return p, nil
}

func intParam(v url.Values, key string, def int) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
	}
	return n, nil
}

func (p *Params) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Query - типизированная выборка по срезу T.
type Query[T any] struct {
	params   Params
	searchIn []func(T) string
	fields   map[string]func(T) string
}

func New[T any](p Params) *Query[T] {
	p.normalize()
	return &Query[T]{params: p, fields: make(map[string]func(T) string)}
}

// SearchIn объявляет строковые поля, по которым работает свободный поиск.
func (q *Query[T]) SearchIn(fields ...func(T) string) *Query[T] {
	q.searchIn = append(q.searchIn, fields...)
	return q
}

// Field регистрирует поле, доступное для equal-фильтра и сортировки.
func (q *Query[T]) Field(name string, get func(T) string) *Query[T] {
	q.fields[name] = get
	return q
}

// Match - составной предикат: поиск (OR по полям) AND все equal-фильтры.
func (q *Query[T]) Match(item T) bool {
	if s := q.params.Search; s != "" {
		needle := strings.ToLower(s)
		found := false
		for _, get := range q.searchIn {
			if strings.Contains(strings.ToLower(get(item)), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for name, want := range q.params.Equals {
		get, ok := q.fields[name]
		if !ok {
			continue
		}
		if !strings.EqualFold(get(item), want) {
			return false
		}
	}
	return true
}

func (q *Query[T]) validate() error {
	for name := range q.params.Equals {
		if _, ok := q.fields[name]; !ok {
			return fmt.Errorf("%w: unknown filter %q", domain.ErrValidation, name)
		}
	}
	if q.params.Sort != "" {
		if _, ok := q.fields[q.params.Sort]; !ok {
			return fmt.Errorf("%w: unknown sort field %q", domain.ErrValidation, q.params.Sort)
		}
	}
	return nil
}

// Filter применяет предикат и сортировку, без пагинации (нужно для экспорта).
func (q *Query[T]) Filter(items []T) ([]T, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q.Match(it) {
			out = append(out, it)
		}
	}
	if q.params.Sort != "" {
		get := q.fields[q.params.Sort]
		desc := q.params.Desc
		sort.SliceStable(out, func(i, j int) bool {
			a, b := strings.ToLower(get(out[i])), strings.ToLower(get(out[j]))
			if desc {
				return a > b
			}
			return a < b
		})
	}
	return out, nil
}

// Apply - фильтр + страница.
func (q *Query[T]) Apply(items []T) (Page[T], error) {
	filtered, err := q.Filter(items)
	if err != nil {
		return Page[T]{}, err
	}
	pg := NewPagination(q.params.Page, q.params.Limit, len(filtered))
	start, end := pg.Bounds()
	return Page[T]{Data: filtered[start:end], Pagination: pg}, nil
}

// Page - ответ списочного эндпоинта: {data, pagination}.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
