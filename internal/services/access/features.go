package access

import "github.com/arteemmka/reelkit/internal/models"

// Гейтируемые возможности сервиса. Имя фичи скачиваний обязано совпадать
// с той, по которой метеринг читает квоту и сеются лимиты миграции.
const (
	FeatureVideoDownloads = models.FeatureVideoDownloads
	FeatureTextOverlays   = "text_overlays"
	FeatureGreenScreen    = "green_screen"
	FeatureVoiceovers     = "voiceover_generations"
)

// featureTiers сопоставляет возможность минимальному тарифу, на котором она доступна.
var featureTiers = map[string]models.Tier{
	FeatureVideoDownloads: models.TierStarter,
	FeatureTextOverlays:   models.TierStarter,
	FeatureVoiceovers:     models.TierStarter,
	FeatureGreenScreen:    models.TierPro,
}

// RequiredTier возвращает минимальный тариф для возможности.
// Второе значение false означает, что такая возможность не зарегистрирована.
func RequiredTier(feature string) (models.Tier, bool) {
	t, ok := featureTiers[feature]
	return t, ok
}
