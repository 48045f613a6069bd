package models

import "time"

// Card represents a task item on the board. The wire-facing ID is generated
// by the client that creates the card; StorageID is the server-assigned row
// key and never leaves the backend.
type Card struct {
	StorageID         string    `json:"-" db:"id"`
	ID                string    `json:"id" db:"client_id"`
	Title             string    `json:"title" db:"title"`
	SecondaryTitle    string    `json:"secondaryTitle" db:"secondary_title"`
	MainText          string    `json:"mainText" db:"main_text"`
	CardColor         string    `json:"cardColor" db:"card_color"`
	Tags              string    `json:"tags" db:"tags"`
	VersionText       string    `json:"versionText" db:"version_text"`
	ParentContainerID string    `json:"parentContainerId" db:"parent_container_id"`
	UserID            string    `json:"-" db:"user_id"`
	Index             int       `json:"index" db:"position"`
	CreatedTimestamp  time.Time `json:"createdTimestamp" db:"created_at"`
	EstimatedTime     string    `json:"estimatedTime" db:"estimated_time"`
	ActualTime        string    `json:"actualTime" db:"actual_time"`
	Comments          []Comment `json:"comments" db:"-"`

	// CommentsJSON carries the serialized Comments list to and from the
	// comments_json column.
	CommentsJSON string `json:"-" db:"comments_json"`
}

// Comment is a timestamped note embedded in a card, identified by a
// client-generated id unique within the card.
type Comment struct {
	CommentID string    `json:"commentId"`
	Text      string    `json:"text"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Edited    bool      `json:"edited"`
}

// CardPatch is the allow-list of card fields a client may update. Nil fields
// are left untouched; owner and id fields are deliberately absent.
type CardPatch struct {
	Title             *string `json:"title"`
	SecondaryTitle    *string `json:"secondaryTitle"`
	MainText          *string `json:"mainText"`
	CardColor         *string `json:"cardColor"`
	Tags              *string `json:"tags"`
	VersionText       *string `json:"versionText"`
	ParentContainerID *string `json:"parentContainerId"`
	Index             *int    `json:"index"`
	EstimatedTime     *string `json:"estimatedTime"`
	ActualTime        *string `json:"actualTime"`
}

// CommentPatch is the allow-list for comment updates. Edited is not set
// implicitly by the server; a patch that edits text must carry it.
type CommentPatch struct {
	Text   *string `json:"text"`
	Edited *bool   `json:"edited"`
}
