package model

/*

RecipePost is the record stored at /posts/{postKey}.

PreviewImage: one of the fixed bundled preview images (image_1..image_5)
Title: recipe title in plain text
Description: short description shown on the feed card
Recipe: full recipe body text
Author: author's display name at submission time
AuthorUID: author's auth identifier
CreatedOn: wall-clock submission time, human-readable string
Likes: like counter, only ever mutated through the gateway's atomic
increment, never through a read-modify-write of the record

The post key is the node key, generated client-side (base-36 random), and is
not a field of the record. Posts are immutable after creation except Likes.

*/

type RecipePost struct {
	PreviewImage PreviewImage `json:"preview_image"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Recipe       string       `json:"recipe"`
	Author       string       `json:"author"`
	AuthorUID    string       `json:"author_uid"`
	CreatedOn    string       `json:"created_on"`
	Likes        int          `json:"likes"`
}

// PreviewImage selects one of the preview images bundled with the client.
type PreviewImage string

const (
	PreviewImage1 PreviewImage = "image_1"
	PreviewImage2 PreviewImage = "image_2"
	PreviewImage3 PreviewImage = "image_3"
	PreviewImage4 PreviewImage = "image_4"
	PreviewImage5 PreviewImage = "image_5"
)

var AllPreviewImage = []PreviewImage{
	PreviewImage1,
	PreviewImage2,
	PreviewImage3,
	PreviewImage4,
	PreviewImage5,
}

func (p PreviewImage) IsValid() bool {
	for _, img := range AllPreviewImage {
		if p == img {
			return true
		}
	}
	return false
}

func (p PreviewImage) String() string {
	return string(p)
}
