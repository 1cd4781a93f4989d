package jellyfin

import "fmt"

// EmptyResult is the item query result Jellyfin returns for zero matches.
// Clients treat it as "nothing found" on every search-capable endpoint.
const EmptyResult = `{"Items":[],"TotalRecordCount":0,"StartIndex":0}`

// View is a user-visible library view.
type View struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	ParentID       string `json:"ParentId,omitempty"`
	CollectionType string `json:"CollectionType,omitempty"`
}

// VirtualFolder is a configured library.
type VirtualFolder struct {
	Name           string   `json:"Name"`
	ItemID         string   `json:"ItemId"`
	CollectionType string   `json:"CollectionType,omitempty"`
	Locations      []string `json:"Locations,omitempty"`
}

type itemsEnvelope[T any] struct {
	Items            []T `json:"Items"`
	TotalRecordCount int `json:"TotalRecordCount"`
}

// StatusError reports a non-success response from the origin server.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Op, e.StatusCode, e.Body)
}
