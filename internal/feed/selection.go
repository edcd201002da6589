// Package feed implements the feed assembler (C10): pool building,
// candidate selection, bucket tagging, batch fetch, per-candidate
// scoring and fair-share interleaving into a FEED_SIZE response (spec
// §4.7).
package feed

import (
	"math/rand"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
)

// Bucket tags candidates for the fair-share interleave step (spec
// §4.7 step 3, step 6).
type Bucket string

const (
	BucketCatTop          Bucket = "CAT:TOP"
	BucketCatRising       Bucket = "CAT:RISING"
	BucketCatExtra        Bucket = "CAT:EXTRA"
	BucketCreatorTop      Bucket = "CREATOR:TOP"
	BucketCreatorRising   Bucket = "CREATOR:RISING"
	BucketCreatorExtra    Bucket = "CREATOR:EXTRA"
	BucketCreatorFollowed Bucket = "CREATOR:FOLLOWED"
	BucketSkipReentry     Bucket = "SKIP_REENTRY"
	BucketWatched         Bucket = "WATCHED"
	BucketRising          Bucket = "RISING"
	BucketTrending        Bucket = "TRENDING"
	BucketRecent          Bucket = "RECENT"
	BucketEvergreen       Bucket = "EVERGREEN"
	BucketUnknown         Bucket = "UNKNOWN"
	BucketExplore         Bucket = "EXPLORE"
)

// categoryPick names one category selected for batch fetch, tagged
// with the bucket it was drawn from, and the subcategory picks nested
// under it.
type categoryPick struct {
	category *po.CategoryNode
	bucket   Bucket
	subs     []subPick
}

type subPick struct {
	name   string
	bucket Bucket
}

type creatorPick struct {
	creatorID string
	bucket    Bucket
}

// pickCategories implements step 2's category selection: first 3 of
// top, first 2 of rising, plus 1 random from top[3:] and 1 random
// from rising[2:] (spec §4.7 step 2).
func (a *Assembler) pickCategories(view *profileaccessor.View) []categoryPick {
	var picks []categoryPick

	top := view.TopInterests
	for i := 0; i < len(top) && i < 3; i++ {
		picks = append(picks, a.buildCategoryPick(top[i], BucketCatTop))
	}
	if len(top) > 3 {
		n := a.pickOneRandom(len(top) - 3)
		picks = append(picks, a.buildCategoryPick(top[3+n], BucketCatExtra))
	}

	rising := view.RisingInterests
	for i := 0; i < len(rising) && i < 2; i++ {
		picks = append(picks, a.buildCategoryPick(rising[i], BucketCatRising))
	}
	if len(rising) > 2 {
		n := a.pickOneRandom(len(rising) - 2)
		picks = append(picks, a.buildCategoryPick(rising[2+n], BucketCatExtra))
	}

	return picks
}

// buildCategoryPick resolves cat's selected subcategories: top-2 plus
// 1 random extra, and top-1 rising plus 1 random rising extra (spec
// §4.7 step 4).
func (a *Assembler) buildCategoryPick(cat *po.CategoryNode, bucket Bucket) categoryPick {
	var subs []subPick

	topSubs := cat.TopSubs
	for i := 0; i < len(topSubs) && i < 2; i++ {
		subs = append(subs, subPick{name: topSubs[i].Name, bucket: bucket})
	}
	if len(topSubs) > 2 {
		n := a.pickOneRandom(len(topSubs) - 2)
		subs = append(subs, subPick{name: topSubs[2+n].Name, bucket: bucket})
	}

	risingSubs := cat.RisingSubs
	if len(risingSubs) > 0 {
		subs = append(subs, subPick{name: risingSubs[0].Name, bucket: bucket})
	}
	if len(risingSubs) > 1 {
		n := a.pickOneRandom(len(risingSubs) - 1)
		subs = append(subs, subPick{name: risingSubs[1+n].Name, bucket: bucket})
	}

	return categoryPick{category: cat, bucket: bucket, subs: subs}
}

// pickCreators implements step 2's creator selection across the top,
// rising and followed pools, first-wins on duplicate ids (FOLLOWED >
// TOP > RISING > EXTRA), mirroring the priority convention used by
// session merge-back (spec §4.7 step 2, §4.6).
func (a *Assembler) pickCreators(view *profileaccessor.View) []creatorPick {
	seen := map[string]bool{}
	var picks []creatorPick
	add := func(id string, bucket Bucket) {
		if seen[id] {
			return
		}
		seen[id] = true
		picks = append(picks, creatorPick{creatorID: id, bucket: bucket})
	}

	for i := 0; i < len(view.Following) && i < 3; i++ {
		add(view.Following[i].UserID, BucketCreatorFollowed)
	}
	if len(view.Following) > 3 {
		n := a.pickOneRandom(len(view.Following) - 3)
		add(view.Following[3+n].UserID, BucketCreatorFollowed)
	}

	top := view.CreatorsInterests.TopCreators
	for i := 0; i < len(top) && i < 4; i++ {
		add(top[i].CreatorID, BucketCreatorTop)
	}
	if len(top) > 4 {
		n := a.pickOneRandom(len(top) - 4)
		add(top[4+n].CreatorID, BucketCreatorExtra)
	}

	rising := view.CreatorsInterests.RisingCreators
	for i := 0; i < len(rising) && i < 2; i++ {
		add(rising[i].CreatorID, BucketCreatorRising)
	}
	if len(rising) > 2 {
		n := a.pickOneRandom(len(rising) - 2)
		add(rising[2+n].CreatorID, BucketCreatorExtra)
	}

	return picks
}

// pickSkipReentry returns, with probability 0.4, one random creator id
// from the skipped pool whose reentryAt has passed (spec §4.7 step 2).
func (a *Assembler) pickSkipReentry(ci po.CreatorsInterests, now time.Time) (string, bool) {
	var eligible []string
	for _, e := range ci.Skipped {
		if !now.Before(e.ReentryAt) {
			eligible = append(eligible, e.CreatorID)
		}
	}
	if len(eligible) == 0 || a.rng.Float64() >= 0.4 {
		return "", false
	}
	return eligible[a.pickOneRandom(len(eligible))], true
}

// pickWatched returns, with probability 0.4, one random creator id
// from the watched pool (spec §4.7 step 2).
func (a *Assembler) pickWatched(ci po.CreatorsInterests) (string, bool) {
	if len(ci.Watched) == 0 || a.rng.Float64() >= 0.4 {
		return "", false
	}
	return ci.Watched[a.pickOneRandom(len(ci.Watched))].CreatorID, true
}

// pickOneRandom returns a random index in [0, n). Exists as a seam so
// tests can inject a deterministic rand.Rand (Assembler.SetRand).
func (a *Assembler) pickOneRandom(n int) int {
	if n <= 0 {
		return 0
	}
	return a.rng.Intn(n)
}

func defaultRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
