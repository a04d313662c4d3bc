package types

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex ntfn_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

// initializeSID initializes the shortid generator once
func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short ID with a prefix.
// Total length is capped at 12 characters, e.g., `rq_xYZ12A8Q`.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	availableLen := 12 - len(prefix)
	if availableLen <= 0 {
		return ""
	}

	if len(id) > availableLen {
		id = id[:availableLen]
	}

	return fmt.Sprintf("%s%s", prefix, id)
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_NOTIFICATION = "ntfn"

	SHORT_ID_PREFIX_REQUEST = "rq_"
)

// GenerateSubscriptionToken returns a play-style opaque subscription token,
// e.g. emulator_sub_a1b2c3d4e5f6a7b8_1700000000000
func GenerateSubscriptionToken(prefix string, nowMillis int64) string {
	return fmt.Sprintf("%s_sub_%s_%d", prefix, uuidHex16(), nowMillis)
}

// GeneratePurchaseToken returns a play-style opaque one-time purchase token,
// e.g. emulator_purchase_a1b2c3d4e5f6a7b8_1700000000000
func GeneratePurchaseToken(prefix string, nowMillis int64) string {
	return fmt.Sprintf("%s_purchase_%s_%d", prefix, uuidHex16(), nowMillis)
}

// GenerateOrderID returns a play-style order id, e.g. GPA.1234-5678-9012-3456
func GenerateOrderID() string {
	return fmt.Sprintf("GPA.%04d-%04d-%04d-%04d",
		1000+rand.Intn(9000),
		1000+rand.Intn(9000),
		1000+rand.Intn(9000),
		1000+rand.Intn(9000),
	)
}

func uuidHex16() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
