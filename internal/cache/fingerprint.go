package cache

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/cespare/xxhash/v2"

	"order-dispatch/internal/entities"
)

// Fingerprint сводит изменяемые поля списка (id, все статусы, updated_at) к одному числу.
// Кортежи сортируются, поэтому порядок строк в ответе БД не влияет на результат.
func Fingerprint(orders []entities.Order) uint64 {
	tuples := make([]string, 0, len(orders))
	for _, o := range orders {
		tuples = append(tuples, strings.Join([]string{
			o.ID,
			o.Status,
			nullable(o.StatusA),
			nullable(o.StatusB),
			strconv.FormatInt(o.UpdatedAt.UnixNano(), 10),
		}, "\x1f"))
	}
	sort.Strings(tuples)

	d := xxhash.New()
	for _, t := range tuples {
		_, _ = d.WriteString(t)
		_, _ = d.Write([]byte{0x1e})
	}
	return d.Sum64()
}

func nullable(s null.String) string {
	if !s.Valid {
		return "\x00"
	}
	return s.String
}
