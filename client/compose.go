package client

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/model"
	"github.com/healthybites/healthybites/utils/log"
)

// createdOnLayout renders the submission wall-clock time the way the
// existing records in the database store it.
const createdOnLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// Draft is the create-recipe form state. PreviewImage defaults to the first
// bundled image, matching the form's initial selection.
type Draft struct {
	PreviewImage model.PreviewImage
	Title        string
	Description  string
	Recipe       string
}

// Composer performs the recipe submission: validate locally, write one new
// record under a fresh key, flag the feed stale, navigate back.
type Composer struct {
	gw      gateway.Gateway
	session *Session
	nav     *Navigator
	bus     *SignalBus
}

func NewComposer(gw gateway.Gateway, session *Session, nav *Navigator, bus *SignalBus) *Composer {
	return &Composer{gw: gw, session: session, nav: nav, bus: bus}
}

// Submit validates the draft and writes it as a new post. Validation
// failures are *ValidationError and make no network call. On success the
// new post's key is returned, a FEED_STALE signal is published, and the
// navigator moves back to the feed.
func (c *Composer) Submit(ctx context.Context, draft Draft) (string, error) {
	if draft.Title == "" || draft.Description == "" || draft.Recipe == "" {
		return "", &ValidationError{Message: "All fields are required!"}
	}
	if draft.PreviewImage == "" {
		draft.PreviewImage = model.PreviewImage1
	}
	if !draft.PreviewImage.IsValid() {
		return "", &ValidationError{Message: "Unknown preview image: " + draft.PreviewImage.String()}
	}

	uid, signedIn := c.gw.CurrentUserID()
	if !signedIn {
		return "", &ValidationError{Message: "You must be signed in to submit a recipe."}
	}

	post := model.RecipePost{
		PreviewImage: draft.PreviewImage,
		Title:        draft.Title,
		Description:  draft.Description,
		Recipe:       draft.Recipe,
		Author:       c.session.Profile().DisplayName(),
		AuthorUID:    uid,
		CreatedOn:    time.Now().Format(createdOnLayout),
		Likes:        0,
	}

	value, err := model.ToTree(post)
	if err != nil {
		return "", err
	}

	key := newPostKey()
	if err := c.gw.Write(ctx, gateway.PostPath(key), value); err != nil {
		return "", errors.Wrap(err, "write post")
	}

	c.bus.Publish(&model.Signal{SignalType: model.SignalTypeFeedStale})
	if err := c.nav.Navigate(ScreenFeed); err != nil {
		// Submission already committed; a navigation mismatch is diagnostic.
		log.Log.WithError(err).Warn("post-submit navigation")
	}

	log.Log.WithField("key", key).Info("recipe submitted")
	return key, nil
}

// newPostKey generates the post's node key: base-36 over 64 random bits,
// the same shape as the keys already in the database. Collisions are
// negligible at the expected post volume.
func newPostKey() string {
	return strconv.FormatUint(rand.Uint64(), 36)
}
