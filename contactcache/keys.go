package contactcache

import "fmt"

// ContactKey names the cached single-contact view.
func ContactKey(contactID int64) string {
	return fmt.Sprintf("contact:id=%d", contactID)
}

// ListKey names a cached contact page. Distinct pagination parameters
// cache independently.
func ListKey(limit, offset int) string {
	return fmt.Sprintf("contacts:limit=%d_offset=%d", limit, offset)
}

// SearchKey names a cached search result for the given filters.
func SearchKey(firstName, lastName, email string, limit, offset int) string {
	return fmt.Sprintf("search:first=%s_last=%s_email=%s_limit=%d_offset=%d",
		firstName, lastName, email, limit, offset)
}

// IdentityKey names the cached identity record for a subject.
func IdentityKey() string {
	return "identity"
}
