package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xaenox/vikas-bot/internal/models"
	"github.com/xaenox/vikas-bot/internal/storage"
	"go.uber.org/zap"
)

var (
	arCategories = []string{
		"Clothing and Accessories",
		"Footwear",
		"Watches",
		"Eyewear",
		"Jewelry",
		"Bags",
	}
	threeDCategories = []string{
		"Furniture",
		"Electronics",
		"Home Decor",
		"Appliances",
	}
)

var arWordRe = regexp.MustCompile(`\bar\b`)

// Immersive decides which AR and 3D experiences a product supports. The
// eligibility rules are pure functions of the product category.
type Immersive struct {
	store  storage.ProductStorage
	logger *zap.Logger
}

func NewImmersive(store storage.ProductStorage, logger *zap.Logger) *Immersive {
	return &Immersive{store: store, logger: logger}
}

func categoryIn(p *models.Product, categories []string) bool {
	if p == nil || p.Category == "" {
		return false
	}
	lower := strings.ToLower(p.Category)
	for _, c := range categories {
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func ARSupported(p *models.Product) bool { return categoryIn(p, arCategories) }

func ThreeDSupported(p *models.Product) bool { return categoryIn(p, threeDCategories) }

// ExperienceOptions lists the launchable experiences for a product
func ExperienceOptions(p *models.Product) []models.ExperienceFeature {
	features := []models.ExperienceFeature{}
	if ARSupported(p) {
		features = append(features, models.ExperienceFeature{
			Type:        "ar_try_on",
			Name:        "Virtual Try-On",
			Description: "See how this looks on you using AR",
			Action:      "launch_ar",
		})
	}
	if ThreeDSupported(p) {
		features = append(features,
			models.ExperienceFeature{
				Type:        "3d_view",
				Name:        "3D View",
				Description: "Explore this product in 3D",
				Action:      "launch_3d",
			},
			models.ExperienceFeature{
				Type:        "virtual_room",
				Name:        "View in Your Room",
				Description: "See how it looks in your space",
				Action:      "launch_room",
			})
	}
	return features
}

func ARAssetFor(p *models.Product) *models.ARAsset {
	if !ARSupported(p) {
		return nil
	}
	return &models.ARAsset{
		ModelURL:      fmt.Sprintf("/ar/models/%s.usdz", p.ID),
		AndroidURL:    fmt.Sprintf("/ar/models/%s.glb", p.ID),
		FallbackImage: firstImage(p),
		Scale:         1.0,
		Placement:     "floor",
	}
}

func ViewerConfigFor(p *models.Product) *models.ViewerConfig {
	if !ThreeDSupported(p) {
		return nil
	}
	return &models.ViewerConfig{
		ModelURL:        fmt.Sprintf("/3d/models/%s.glb", p.ID),
		ThumbnailURL:    firstImage(p),
		AutoRotate:      true,
		CameraControls:  true,
		ShadowIntensity: 0.5,
		Exposure:        1.0,
		BackgroundColor: "#f5f5f5",
	}
}

func firstImage(p *models.Product) string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (a *Immersive) Process(ctx context.Context, query string, qc models.QueryContext) (*models.AgentResponse, error) {
	p, err := a.contextProduct(ctx, qc.ProductID)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(query)
	if strings.Contains(lower, "try on") || strings.Contains(lower, "virtual") || arWordRe.MatchString(lower) {
		if p == nil {
			return &models.AgentResponse{
				Success:  true,
				Response: "To try on products virtually, please select a product from our Fashion, Footwear, or Accessories categories.",
				Payload:  models.ImmersivePayload{Features: []models.ExperienceFeature{}},
			}, nil
		}
		if ARSupported(p) {
			return &models.AgentResponse{
				Success:  true,
				Response: fmt.Sprintf("Great news! You can try on %q virtually using AR. Click the \"Virtual Try-On\" button on the product page.", p.Title),
				Products: []models.Product{*p},
				Payload:  models.ImmersivePayload{Features: ExperienceOptions(p), ARAsset: ARAssetFor(p)},
			}, nil
		}
		return &models.AgentResponse{
			Success:  true,
			Response: "Virtual try-on is available for clothing, footwear, and accessories. This product doesn't support AR yet, but you can view detailed images.",
			Products: []models.Product{*p},
			Payload:  models.ImmersivePayload{Features: []models.ExperienceFeature{}},
		}, nil
	}

	if strings.Contains(lower, "3d") || strings.Contains(lower, "view in room") {
		if p == nil {
			return &models.AgentResponse{
				Success:  true,
				Response: "3D viewing is available for Furniture, Electronics, and Home Decor products. Select a product to explore it in 3D.",
				Payload:  models.ImmersivePayload{Features: []models.ExperienceFeature{}},
			}, nil
		}
		if ThreeDSupported(p) {
			return &models.AgentResponse{
				Success:  true,
				Response: fmt.Sprintf("You can view %q in 3D! Use the 3D viewer to rotate, zoom, and even see how it looks in your room.", p.Title),
				Products: []models.Product{*p},
				Payload:  models.ImmersivePayload{Features: ExperienceOptions(p), Viewer: ViewerConfigFor(p)},
			}, nil
		}
	}

	return &models.AgentResponse{
		Success:  true,
		Response: "VIKAS offers AR try-on for fashion and 3D viewing for furniture and electronics. Browse eligible products to experience these features!",
		Payload: models.ImmersivePayload{Features: []models.ExperienceFeature{
			{Type: "ar", Name: "AR Try-On", Categories: arCategories},
			{Type: "3d", Name: "3D View", Categories: threeDCategories},
		}},
	}, nil
}

// contextProduct loads the product the user is looking at, if any. A stale
// id is treated as no product.
func (a *Immersive) contextProduct(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, nil
	}
	p, err := a.store.GetProduct(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.Debug("Context product not found", zap.String("product_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading product: %w", err)
	}
	return p, nil
}
