package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins a base connection URL with a database name.
// The name is spliced in ahead of any existing query string, and
// sslmode=disable is appended when the URL does not already pin one.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base := strings.TrimRight(baseURL, "/")

	var url string
	if idx := strings.Index(base, "?"); idx >= 0 {
		url = fmt.Sprintf("%s/%s?%s", base[:idx], databaseName, base[idx+1:])
	} else {
		url = fmt.Sprintf("%s/%s", base, databaseName)
	}

	if !strings.Contains(url, "sslmode=") {
		if strings.Contains(url, "?") {
			url += "&sslmode=disable"
		} else {
			url += "?sslmode=disable"
		}
	}

	return url
}
