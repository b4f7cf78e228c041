package entity

// NotificationRecord tracks one processed candidate for the end-of-run digest.
type NotificationRecord struct {
	Title  string
	URL    string
	Status ClaimStatus // "failed" until the claim procedure finalizes it
}
