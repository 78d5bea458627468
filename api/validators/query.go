package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
)

// IntRange bounds an integer query parameter. Default applies when the key is absent.
type IntRange struct {
	Default int
	Min     int
	Max     int
}

// QueryInt reads key from the query string and checks it against rng.
func QueryInt(r *http.Request, key string, rng IntRange) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return rng.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "must be a whole number")
	}
	if value < rng.Min || value > rng.Max {
		return 0, queryError(key, fmt.Sprintf("must be between %d and %d", rng.Min, rng.Max))
	}
	return value, nil
}

// QueryFulfillment reads ?fulfillment=delivery|pickup. An absent value means delivery.
func QueryFulfillment(r *http.Request) (enums.FulfillmentType, error) {
	fulfillment, err := enums.ParseFulfillmentType(r.URL.Query().Get("fulfillment"))
	if err != nil {
		return "", queryError("fulfillment", "must be delivery or pickup")
	}
	return fulfillment, nil
}

func queryError(key, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter").
		WithDetails(map[string]string{key: reason})
}
