package domain

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
)

// AssetType classifies stored files.
type AssetType string

const (
	AssetTypeProposal     AssetType = "proposal"
	AssetTypeJerseyMockup AssetType = "jersey-mockup"
	AssetTypeLogo         AssetType = "logo"
	AssetTypeMedia        AssetType = "media"
)

// ParseAssetType validates a wire value.
func ParseAssetType(value string) (AssetType, error) {
	switch assetType := AssetType(strings.TrimSpace(value)); assetType {
	case AssetTypeProposal, AssetTypeJerseyMockup, AssetTypeLogo, AssetTypeMedia:
		return assetType, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeAssetInvalidType, "Invalid asset type", map[string]string{"type": value})
	}
}

// Asset is a team file such as a proposal PDF or a jersey mockup.
type Asset struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Type      AssetType `json:"type"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// AssetObject is the stored content behind an asset.
type AssetObject struct {
	ContentType string
	Data        []byte
}
