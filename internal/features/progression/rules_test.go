package progression

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/catalog"
)

const (
	testBonus     = 100
	testBudget    = 20
	testReplayMax = 1000
)

func chapter(seq, trashRequirement int) *catalog.Chapter {
	return &catalog.Chapter{Sequence: seq, Name: "ch", TrashRequirement: trashRequirement}
}

// clearChapter проходит все уровни главы на три звезды.
func clearChapter(t *testing.T, u *UserLevel, chapterSeq int) {
	t.Helper()
	first, last := catalog.LevelRange(chapterSeq)
	for seq := first; seq <= last; seq++ {
		if _, err := u.RecordLevel(seq, 1000, 3, testBonus); err != nil {
			t.Fatalf("RecordLevel(%d): %v", seq, err)
		}
	}
}

func TestNewUserLevelShape(t *testing.T) {
	u := NewUserLevel(uuid.New())
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"highest_level":0,"chapter_progress":{"1":{"unlocked":false,"completed":false}},` +
		`"level_progress":{"1":{"score":0,"stars":0}},"completed_chapter":{},"updated_at":"0001-01-01T00:00:00Z"}`
	if string(b) != want {
		t.Fatalf("json = %s\nwant %s", b, want)
	}
}

func TestUnlock(t *testing.T) {
	u := NewUserLevel(uuid.New())

	if err := u.Unlock(chapter(1, 0), 0); err != nil {
		t.Fatalf("unlock chapter 1: %v", err)
	}
	if _, ok := u.Chapters[2]; !ok {
		t.Fatal("chapter 2 entry not materialized")
	}
	if err := u.Unlock(chapter(1, 0), 0); !errors.Is(err, common.ErrChapterAlreadyUnlocked) {
		t.Fatalf("second unlock err = %v", err)
	}
	if err := u.Unlock(chapter(3, 0), 0); !common.Is(err, common.KindFailedPrecondition) {
		t.Fatalf("unlock unmaterialized chapter err = %v", err)
	}

	// Не хватает вторсырья
	err := u.Unlock(chapter(2, 100), 50)
	if !common.Is(err, common.KindRequirementNotMet) {
		t.Fatalf("err = %v, want requirement not met", err)
	}
	if got, want := common.PublicMessage(err), "解鎖條件不足 需要回收數量 / 目前回收數量: 100 / 50"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}

	// Вторсырья хватает, но не пройдено пять уровней
	err = u.Unlock(chapter(2, 100), 100)
	if got, want := common.PublicMessage(err), "解鎖條件不足 需要完成關卡 / 目前最高關卡: 5 / 0"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if u.Chapters[2].Unlocked {
		t.Fatal("failed unlock changed state")
	}

	clearChapter(t, u, 1)
	if err := u.Unlock(chapter(2, 100), 100); err != nil {
		t.Fatalf("unlock chapter 2: %v", err)
	}
}

func TestRecordLevelFirstFullClear(t *testing.T) {
	u := NewUserLevel(uuid.New())

	res, err := u.RecordLevel(1, 800, 3, testBonus)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Updated || res.Reward != testBonus {
		t.Fatalf("result = %+v, want updated with bonus", res)
	}
	if lv, ok := u.Levels[2]; !ok || lv.Score != 0 || lv.Stars != 0 {
		t.Fatalf("level 2 = %+v, %v; want materialized at zero", lv, ok)
	}
	if u.HighestLevel != 1 {
		t.Fatalf("highest_level = %d, want 1", u.HighestLevel)
	}

	// Лучший счёт при тех же трёх звёздах — бонус не повторяется
	res, err = u.RecordLevel(1, 900, 3, testBonus)
	if err != nil || !res.Updated || res.Reward != 0 {
		t.Fatalf("improved score = %+v, %v; want update without bonus", res, err)
	}

	// Откат на меньшие звёзды с большим счётом и снова три звезды
	if _, err := u.RecordLevel(1, 950, 2, testBonus); err != nil {
		t.Fatal(err)
	}
	if res, _ := u.RecordLevel(1, 990, 3, testBonus); res.Reward != 0 {
		t.Fatalf("bonus paid twice: %+v", res)
	}
}

func TestRecordLevelNoRegression(t *testing.T) {
	u := NewUserLevel(uuid.New())
	if _, err := u.RecordLevel(1, 500, 2, testBonus); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct{ score, stars int }{{500, 2}, {100, 1}, {0, 0}, {499, 2}} {
		res, err := u.RecordLevel(1, tc.score, tc.stars, testBonus)
		if err != nil {
			t.Fatal(err)
		}
		if res.Updated {
			t.Fatalf("RecordLevel(%d, %d) updated a better record", tc.score, tc.stars)
		}
		if got := u.Levels[1]; got.Score != 500 || got.Stars != 2 {
			t.Fatalf("level 1 = %+v, want unchanged", got)
		}
	}
}

func TestRecordLevelValidation(t *testing.T) {
	u := NewUserLevel(uuid.New())

	if _, err := u.RecordLevel(1, 10, 4, testBonus); !common.Is(err, common.KindInvalidArgument) {
		t.Fatalf("stars=4 err = %v", err)
	}
	if _, err := u.RecordLevel(1, -1, 1, testBonus); !common.Is(err, common.KindInvalidArgument) {
		t.Fatalf("negative score err = %v", err)
	}
	if _, err := u.RecordLevel(2, 10, 1, testBonus); !errors.Is(err, common.ErrLevelRecordNotFound) {
		t.Fatalf("unmaterialized level err = %v", err)
	}
}

func TestHighestLevelNeverDecreases(t *testing.T) {
	u := NewUserLevel(uuid.New())
	for seq := 1; seq <= 4; seq++ {
		if _, err := u.RecordLevel(seq, 10, 1, testBonus); err != nil {
			t.Fatal(err)
		}
	}
	if u.HighestLevel != 4 {
		t.Fatalf("highest_level = %d, want 4", u.HighestLevel)
	}
	// Улучшение ранних уровней не опускает максимум
	prev := u.HighestLevel
	for seq := 1; seq <= 4; seq++ {
		if _, err := u.RecordLevel(seq, 100, 3, testBonus); err != nil {
			t.Fatal(err)
		}
		if u.HighestLevel < prev {
			t.Fatalf("highest_level decreased to %d", u.HighestLevel)
		}
		prev = u.HighestLevel
	}
}

func TestComplete(t *testing.T) {
	u := NewUserLevel(uuid.New())
	ch := chapter(1, 0)

	if err := u.Complete(ch, testBudget); !errors.Is(err, common.ErrChapterNotUnlocked) {
		t.Fatalf("complete locked chapter err = %v", err)
	}
	if err := u.Unlock(ch, 0); err != nil {
		t.Fatal(err)
	}

	// Четыре уровня из пяти на три звезды — недостаточно
	for seq := 1; seq <= 4; seq++ {
		if _, err := u.RecordLevel(seq, 100, 3, testBonus); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := u.RecordLevel(5, 100, 2, testBonus); err != nil {
		t.Fatal(err)
	}
	if err := u.Complete(ch, testBudget); !errors.Is(err, common.ErrChapterNotCompletable) {
		t.Fatalf("4/5 complete err = %v", err)
	}

	if _, err := u.RecordLevel(5, 100, 3, testBonus); err != nil {
		t.Fatal(err)
	}
	if err := u.Complete(ch, testBudget); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if cc := u.Completed[1]; cc.Remaining != testBudget || cc.HighestScore != 0 {
		t.Fatalf("completed_chapter = %+v", cc)
	}
	if err := u.Complete(ch, testBudget); !errors.Is(err, common.ErrChapterAlreadyCompleted) {
		t.Fatalf("second complete err = %v", err)
	}
}

func TestReplayBudget(t *testing.T) {
	u := NewUserLevel(uuid.New())
	if _, err := u.Replay(1, 10, 5, testReplayMax); !errors.Is(err, common.ErrChapterNotCompleted) {
		t.Fatalf("replay before completion err = %v", err)
	}

	ch := chapter(1, 0)
	if err := u.Unlock(ch, 0); err != nil {
		t.Fatal(err)
	}
	clearChapter(t, u, 1)
	if err := u.Complete(ch, testBudget); err != nil {
		t.Fatal(err)
	}

	if _, err := u.Replay(1, 10, testReplayMax+1, testReplayMax); !common.Is(err, common.KindInvalidArgument) {
		t.Fatalf("reward over cap err = %v", err)
	}
	if _, err := u.Replay(1, 10, -1, testReplayMax); !common.Is(err, common.KindInvalidArgument) {
		t.Fatalf("negative reward err = %v", err)
	}

	scores := []int{300, 200, 400}
	for i := 0; i < testBudget; i++ {
		score := scores[i%len(scores)]
		res, err := u.Replay(1, score, 10, testReplayMax)
		if err != nil {
			t.Fatalf("replay %d: %v", i+1, err)
		}
		if res.Remaining != testBudget-i-1 {
			t.Fatalf("replay %d remaining = %d", i+1, res.Remaining)
		}
		if res.Reward != 10 {
			t.Fatalf("replay %d reward = %d", i+1, res.Reward)
		}
	}
	if got := u.Completed[1].HighestScore; got != 400 {
		t.Fatalf("highest_score = %d, want 400", got)
	}
	if _, err := u.Replay(1, 999, 10, testReplayMax); !errors.Is(err, common.ErrReplayBudgetExhausted) {
		t.Fatalf("21st replay err = %v", err)
	}
}

func TestReplayHighScore(t *testing.T) {
	u := NewUserLevel(uuid.New())
	u.Chapters[1] = ChapterState{Unlocked: true, Completed: true}
	u.Completed[1] = CompletedChapter{Remaining: 3, HighestScore: 500}

	res, err := u.Replay(1, 400, 0, testReplayMax)
	if err != nil {
		t.Fatal(err)
	}
	if res.NewHighScore || res.HighestScore != 500 {
		t.Fatalf("lower score result = %+v", res)
	}
	res, _ = u.Replay(1, 600, 0, testReplayMax)
	if !res.NewHighScore || res.HighestScore != 600 || res.Remaining != 1 {
		t.Fatalf("higher score result = %+v", res)
	}
}
