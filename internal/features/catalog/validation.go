package catalog

import (
	"fmt"
	"strings"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/trash"
)

// ValidateProduct проверяет товар до записи в БД.
// Требование по переработке может отсутствовать, но если оно есть,
// в нём только известные материалы с положительным количеством.
func ValidateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return common.InvalidArgument("商品名稱不可為空")
	}
	if in.Price < 0 {
		return common.InvalidArgument("商品價格不可為負數")
	}
	for m, n := range in.RecycleRequirement {
		if _, err := trash.ParseMaterial(string(m)); err != nil {
			return common.InvalidArgument(fmt.Sprintf("無效的回收類別: %s", m))
		}
		if n <= 0 {
			return common.InvalidArgument(fmt.Sprintf("%s 的回收數量必須為正整數", m))
		}
	}
	return nil
}

// ValidateLevel проверяет уровень относительно его главы.
// requirementExists — есть ли уже уровень с номером UnlockRequirement.
// Нулевое требование допустимо только у первого уровня.
func ValidateLevel(in LevelInput, requirementExists bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return common.InvalidArgument("關卡名稱不可為空")
	}
	first, last := LevelRange(in.ChapterSequence)
	if in.Sequence < first || in.Sequence > last {
		return common.InvalidArgument(fmt.Sprintf("第 %d 章的關卡序號必須介於 %d 與 %d 之間", in.ChapterSequence, first, last))
	}
	if in.UnlockRequirement < 0 {
		return common.InvalidArgument("解鎖條件不可為負數")
	}
	if in.UnlockRequirement == 0 && in.Sequence != 1 {
		return common.InvalidArgument(fmt.Sprintf("關卡 %d 必須指定解鎖條件關卡", in.Sequence))
	}
	if in.UnlockRequirement == in.Sequence {
		return common.InvalidArgument("解鎖條件不可為關卡本身")
	}
	if in.UnlockRequirement != 0 && !requirementExists {
		return common.InvalidArgument(fmt.Sprintf("解鎖條件關卡 %d 不存在", in.UnlockRequirement))
	}
	return nil
}
