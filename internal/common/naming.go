package common

import (
	"regexp"
	"strings"
)

var caseBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// ToSnakeCase inserts an underscore at every lowercase-to-uppercase boundary
// and lowercases the result: "customerID" becomes "customer_id" and
// "StreamingTV" becomes "streaming_tv". Applying it twice is the same as
// applying it once.
func ToSnakeCase(name string) string {
	return strings.ToLower(caseBoundary.ReplaceAllString(name, "${1}_${2}"))
}
