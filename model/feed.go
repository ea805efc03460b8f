package model

/*

FeedItem is one entry of the projected feed: the post's node key paired with
the decoded record. The key is carried along because every downstream action
(like toggle, detail navigation) addresses the post by key.

FeedSnapshot is the full projected state of /posts/ after one subscription
push. It is always a complete replacement of the previous snapshot, in the
gateway's enumeration order. Consumers must treat it as the current truth,
never as a delta.

*/

type FeedItem struct {
	Key  string     `json:"key"`
	Post RecipePost `json:"value"`
}

type FeedSnapshot []FeedItem

func (s FeedSnapshot) Empty() bool {
	return len(s) == 0
}
