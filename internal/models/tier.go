// Package models содержит доменные структуры: аккаунты, тарифы,
// биллинговые периоды, лимиты и записи о скачиваниях, а также
// вспомогательные типы для приёма данных из JSON-запросов.
package models

import "fmt"

// Tier представляет тарифный план аккаунта.
// Множество значений фиксировано: free < starter < pro < enterprise.
type Tier string

const (
	// TierFree — бесплатный тариф.
	TierFree Tier = "free"
	// TierStarter — начальный платный тариф.
	TierStarter Tier = "starter"
	// TierPro — профессиональный тариф.
	TierPro Tier = "pro"
	// TierEnterprise — корпоративный тариф.
	TierEnterprise Tier = "enterprise"
)

// tierRank задает полный порядок тарифов для сравнения.
var tierRank = map[Tier]int{
	TierFree:       0,
	TierStarter:    1,
	TierPro:        2,
	TierEnterprise: 3,
}

// ParseTier валидирует строку и возвращает Tier.
// Для неизвестного значения возвращается ошибка, тариф по умолчанию не подставляется.
func ParseTier(s string) (Tier, error) {
	const op = "models.ParseTier"
	t := Tier(s)
	if _, ok := tierRank[t]; !ok {
		return "", fmt.Errorf("%s: unknown tier %q", op, s)
	}
	return t, nil
}

// Valid сообщает, входит ли значение в множество известных тарифов.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Compare возвращает отрицательное число, ноль или положительное число,
// если a меньше, равен или больше b в порядке тарифов.
func Compare(a, b Tier) int {
	return tierRank[a] - tierRank[b]
}

// IsAtLeast сообщает, достаточно ли текущего тарифа для требуемого.
// Единственный примитив, на котором строятся все проверки доступа.
func IsAtLeast(current, required Tier) bool {
	cr, ok := tierRank[current]
	if !ok {
		return false
	}
	rr, ok := tierRank[required]
	if !ok {
		return false
	}
	return cr >= rr
}

// AllTiers возвращает все тарифы в порядке возрастания.
func AllTiers() []Tier {
	return []Tier{TierFree, TierStarter, TierPro, TierEnterprise}
}
