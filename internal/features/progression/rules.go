package progression

import (
	"fmt"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/catalog"
)

// MaxStars — звёзд за уровень.
const MaxStars = 3

// Правила ниже меняют документ только при успехе.
// При ошибке UserLevel остаётся как был.

// Unlock открывает главу ch.
//
// Порядок проверок: запись главы открыта, глава ещё не открыта,
// сдано достаточно вторсырья, пройдено достаточно уровней.
// При успехе открывается запись следующей главы.
func (u *UserLevel) Unlock(ch *catalog.Chapter, trashTotal int) error {
	st, ok := u.Chapters[ch.Sequence]
	if !ok {
		return common.FailedPrecondition(fmt.Sprintf("章節 %s 尚未開啟", ch.Name))
	}
	if st.Unlocked {
		return common.ErrChapterAlreadyUnlocked
	}
	if trashTotal < ch.TrashRequirement {
		return common.RequirementNotMet(fmt.Sprintf(
			"解鎖條件不足 需要回收數量 / 目前回收數量: %d / %d", ch.TrashRequirement, trashTotal))
	}
	// Глава N требует пройденных (N-1)*5 уровней
	required := (ch.Sequence - 1) * catalog.LevelsPerChapter
	if u.HighestLevel < required {
		return common.RequirementNotMet(fmt.Sprintf(
			"解鎖條件不足 需要完成關卡 / 目前最高關卡: %d / %d", required, u.HighestLevel))
	}

	st.Unlocked = true
	u.Chapters[ch.Sequence] = st
	if _, ok := u.Chapters[ch.Sequence+1]; !ok {
		u.Chapters[ch.Sequence+1] = ChapterState{}
	}
	return nil
}

// Complete отмечает главу завершённой и выдаёт budget переигровок.
// Все уровни главы должны быть пройдены на три звезды.
func (u *UserLevel) Complete(ch *catalog.Chapter, budget int) error {
	st, ok := u.Chapters[ch.Sequence]
	if !ok {
		return common.FailedPrecondition(fmt.Sprintf("章節 %s 尚未開啟", ch.Name))
	}
	if st.Completed {
		return common.ErrChapterAlreadyCompleted
	}
	if !st.Unlocked {
		return common.ErrChapterNotUnlocked
	}
	if !u.allLevelsCleared(ch.Sequence) {
		return common.ErrChapterNotCompletable
	}

	st.Completed = true
	u.Chapters[ch.Sequence] = st
	u.Completed[ch.Sequence] = CompletedChapter{Remaining: budget, HighestScore: 0}
	return nil
}

func (u *UserLevel) allLevelsCleared(chapterSeq int) bool {
	first, last := catalog.LevelRange(chapterSeq)
	for seq := first; seq <= last; seq++ {
		if u.Levels[seq].Stars != MaxStars {
			return false
		}
	}
	return true
}

// RecordLevel записывает результат уровня seq.
//
// Если результат не лучше текущего ни по очкам, ни по звёздам, ничего
// не меняется. Иначе очки и звёзды заменяются. Первые три звезды на уровне
// приносят fullClearBonus (один раз за уровень). Первая звезда открывает
// следующий уровень и поднимает HighestLevel.
func (u *UserLevel) RecordLevel(seq, score, stars int, fullClearBonus int64) (LevelResult, error) {
	if stars < 0 || stars > MaxStars {
		return LevelResult{}, common.InvalidArgument(fmt.Sprintf("星星數量必須介於 0 與 %d 之間", MaxStars))
	}
	if score < 0 {
		return LevelResult{}, common.InvalidArgument("分數不可為負數")
	}
	cur, ok := u.Levels[seq]
	if !ok {
		return LevelResult{}, common.ErrLevelRecordNotFound
	}

	if score <= cur.Score && stars <= cur.Stars {
		return LevelResult{Updated: false, Level: cur, HighestLevel: u.HighestLevel}, nil
	}

	next := LevelState{Score: score, Stars: stars, FullClearRewarded: cur.FullClearRewarded}
	var reward int64
	if stars == MaxStars && !cur.FullClearRewarded {
		next.FullClearRewarded = true
		reward = fullClearBonus
	}
	u.Levels[seq] = next

	if cur.Stars == 0 && stars > 0 {
		if _, ok := u.Levels[seq+1]; !ok {
			u.Levels[seq+1] = LevelState{}
		}
		if u.HighestLevel < seq {
			u.HighestLevel = seq
		}
	}

	return LevelResult{Updated: true, Level: next, HighestLevel: u.HighestLevel, Reward: reward}, nil
}

// Replay засчитывает переигровку завершённой главы seq.
// Тратит одну попытку, обновляет рекорд, если он побит. Награда reward
// выплачивается вне зависимости от очков и ограничена maxReward.
func (u *UserLevel) Replay(seq, score int, reward, maxReward int64) (ReplayResult, error) {
	cc, ok := u.Completed[seq]
	if !ok || !u.Chapters[seq].Completed {
		return ReplayResult{}, common.ErrChapterNotCompleted
	}
	if cc.Remaining <= 0 {
		return ReplayResult{}, common.ErrReplayBudgetExhausted
	}
	if reward < 0 || reward > maxReward {
		return ReplayResult{}, common.InvalidArgument(fmt.Sprintf("獎勵金額必須介於 0 與 %d 之間", maxReward))
	}
	if score < 0 {
		return ReplayResult{}, common.InvalidArgument("分數不可為負數")
	}

	cc.Remaining--
	newHigh := score > cc.HighestScore
	if newHigh {
		cc.HighestScore = score
	}
	u.Completed[seq] = cc

	return ReplayResult{
		Remaining:    cc.Remaining,
		HighestScore: cc.HighestScore,
		NewHighScore: newHigh,
		Reward:       reward,
	}, nil
}
