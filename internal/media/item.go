package media

import "time"

// Item is a catalog record describing one stored object.
//
// Folder stays a plain string: the catalog accepts whatever was recorded and
// readers narrow it with ParseFolder.
type Item struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	Filename  string    `json:"filename"`
	Key       string    `json:"key"`
	FileType  string    `json:"fileType"`
	Folder    string    `json:"folder"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int64     `json:"size"`
}
