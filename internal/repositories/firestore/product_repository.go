package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/aurelia-jewels/api/internal/domain"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/platform/pagination"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const productsCollection = "products"

// ProductRepository persists catalog products within Firestore.
type ProductRepository struct {
	base     *pfirestore.BaseRepository[productDocument]
	provider *pfirestore.Provider
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	return &ProductRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Insert creates the product document, failing on ID collisions.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeProduct(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

// Update replaces the product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	_, err := r.base.Set(ctx, id, encodeProduct(product))
	return err
}

// FindByID loads one product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(doc.ID, doc.Data), nil
}

// List returns a page of products ordered by document ID.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.ActiveOnly {
			q = q.Where("active", "==", true)
		}
		if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
			q = q.Where("category", "==", strings.TrimSpace(*filter.Category))
		}
		q = q.OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	page := domain.CursorPage[domain.Product]{}
	for i, doc := range docs {
		if i == pageSize {
			token, err := pagination.EncodeToken(pagination.AfterID(docs[i-1].ID))
			if err != nil {
				return domain.CursorPage[domain.Product]{}, err
			}
			page.NextPageToken = token
			break
		}
		page.Items = append(page.Items, decodeProduct(doc.ID, doc.Data))
	}
	return page, nil
}

// BulkUpdatePricing overwrites pricing and priceRange for the given products in
// a single BulkWriter pass. No other field is touched.
func (r *ProductRepository) BulkUpdatePricing(ctx context.Context, updates []repositories.ProductPricingUpdate) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	if len(updates) == 0 {
		return nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	writer := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(updates))
	for _, update := range updates {
		id := strings.TrimSpace(update.ProductID)
		if id == "" {
			continue
		}
		ref := client.Collection(productsCollection).Doc(id)
		fields := []firestore.Update{
			{Path: "pricing", Value: encodeProductPricing(update.Pricing)},
		}
		if update.PriceRange != nil {
			fields = append(fields, firestore.Update{Path: "priceRange", Value: encodePriceRange(*update.PriceRange)})
		}
		job, err := writer.Update(ref, fields)
		if err != nil {
			writer.End()
			return pfirestore.WrapError("products.bulkUpdatePricing", err)
		}
		jobs = append(jobs, job)
	}
	writer.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return pfirestore.WrapError("products.bulkUpdatePricing", err)
		}
	}
	return nil
}

// SetApprovalStatus stamps the maker-checker marker without touching other fields.
func (r *ProductRepository) SetApprovalStatus(ctx context.Context, productID string, marker string, updatedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	updates := []firestore.Update{
		{Path: "updatedAt", Value: updatedAt.UTC()},
	}
	if strings.TrimSpace(marker) == "" {
		updates = append(updates, firestore.Update{Path: "approvalStatus", Value: firestore.Delete})
	} else {
		updates = append(updates, firestore.Update{Path: "approvalStatus", Value: strings.TrimSpace(marker)})
	}
	_, err := r.base.Update(ctx, strings.TrimSpace(productID), updates)
	return err
}

func encodeProduct(product domain.Product) productDocument {
	doc := productDocument{
		SKU:            strings.TrimSpace(product.SKU),
		Name:           strings.TrimSpace(product.Name),
		Category:       strings.TrimSpace(product.Category),
		Description:    product.Description,
		Active:         product.Active,
		ApprovalStatus: strings.TrimSpace(product.ApprovalStatus),
		Pricing:        encodeProductPricing(product.Pricing),
		Images:         product.Images,
		Tags:           product.Tags,
		Metadata:       cloneAnyMap(product.Metadata),
		CreatedAt:      product.CreatedAt.UTC(),
		UpdatedAt:      product.UpdatedAt.UTC(),
	}
	if product.Configurator != nil {
		cfg := encodeConfigurator(*product.Configurator)
		doc.Configurator = &cfg
	}
	if product.Diamond != nil {
		doc.Diamond = &diamondDocument{
			TotalCaratWeight: product.Diamond.TotalCaratWeight,
			StoneCount:       product.Diamond.StoneCount,
			DefaultQuality:   product.Diamond.DefaultQuality,
		}
	}
	if product.Gemstone != nil {
		doc.Gemstone = &gemstoneDocument{
			Name:  product.Gemstone.Name,
			Value: product.Gemstone.Value,
		}
	}
	if product.ExtraCharges != (domain.ExtraCharges{}) {
		doc.ExtraCharges = &extraChargesDocument{
			StoneSetting: product.ExtraCharges.StoneSetting,
			Design:       product.ExtraCharges.Design,
		}
	}
	if product.PriceRange != nil {
		pr := encodePriceRange(*product.PriceRange)
		doc.PriceRange = &pr
	}
	return doc
}

func decodeProduct(id string, doc productDocument) domain.Product {
	product := domain.Product{
		ID:             id,
		SKU:            doc.SKU,
		Name:           doc.Name,
		Category:       doc.Category,
		Description:    doc.Description,
		Active:         doc.Active,
		ApprovalStatus: doc.ApprovalStatus,
		Pricing:        decodeProductPricing(doc.Pricing),
		Images:         doc.Images,
		Tags:           doc.Tags,
		Metadata:       cloneAnyMap(doc.Metadata),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if doc.Configurator != nil {
		cfg := decodeConfigurator(*doc.Configurator)
		product.Configurator = &cfg
	}
	if doc.Diamond != nil {
		product.Diamond = &domain.DiamondDetail{
			TotalCaratWeight: doc.Diamond.TotalCaratWeight,
			StoneCount:       doc.Diamond.StoneCount,
			DefaultQuality:   doc.Diamond.DefaultQuality,
		}
	}
	if doc.Gemstone != nil {
		product.Gemstone = &domain.GemstoneDetail{
			Name:  doc.Gemstone.Name,
			Value: doc.Gemstone.Value,
		}
	}
	if doc.ExtraCharges != nil {
		product.ExtraCharges = domain.ExtraCharges{
			StoneSetting: doc.ExtraCharges.StoneSetting,
			Design:       doc.ExtraCharges.Design,
		}
	}
	if doc.PriceRange != nil {
		pr := decodePriceRange(*doc.PriceRange)
		product.PriceRange = &pr
	}
	return product
}

func encodeConfigurator(cfg domain.Configurator) configuratorDocument {
	doc := configuratorDocument{
		Enabled:          cfg.Enabled,
		DefaultMetalType: string(cfg.DefaultMetalType),
		DefaultPurity:    cfg.DefaultPurity,
	}
	for _, metal := range cfg.Metals {
		entry := configurableMetalDocument{
			Type: string(metal.Type),
			Pricing: metalPricingDocument{
				MakingChargeType:  metal.Pricing.MakingChargeType,
				MakingChargeValue: metal.Pricing.MakingChargeValue,
				WastageType:       metal.Pricing.WastageType,
				WastageValue:      metal.Pricing.WastageValue,
				JewelryGST:        metal.Pricing.JewelryGST,
				MakingGST:         metal.Pricing.MakingGST,
			},
		}
		for _, variant := range metal.Variants {
			entry.Variants = append(entry.Variants, metalVariantDocument{
				Purity:                    variant.Purity,
				NetWeight:                 variant.NetWeight,
				GrossWeight:               variant.GrossWeight,
				AvailableColors:           variant.AvailableColors,
				DefaultColor:              variant.DefaultColor,
				AvailableDiamondQualities: variant.AvailableDiamondQualities,
				DefaultDiamondQuality:     variant.DefaultDiamondQuality,
				Sizes:                     encodeSizes(variant.Sizes),
				DefaultSize:               variant.DefaultSize,
			})
		}
		doc.Metals = append(doc.Metals, entry)
	}
	for _, fixed := range cfg.FixedMetals {
		doc.FixedMetals = append(doc.FixedMetals, fixedMetalDocument{
			Type:        string(fixed.Type),
			Purity:      fixed.Purity,
			NetWeight:   fixed.NetWeight,
			GrossWeight: fixed.GrossWeight,
			Sizes:       encodeSizes(fixed.Sizes),
		})
	}
	return doc
}

func decodeConfigurator(doc configuratorDocument) domain.Configurator {
	cfg := domain.Configurator{
		Enabled:          doc.Enabled,
		DefaultMetalType: domain.MetalType(doc.DefaultMetalType),
		DefaultPurity:    doc.DefaultPurity,
	}
	for _, metal := range doc.Metals {
		entry := domain.ConfigurableMetal{
			Type: domain.MetalType(metal.Type),
			Pricing: domain.MetalPricingOverride{
				MakingChargeType:  metal.Pricing.MakingChargeType,
				MakingChargeValue: metal.Pricing.MakingChargeValue,
				WastageType:       metal.Pricing.WastageType,
				WastageValue:      metal.Pricing.WastageValue,
				JewelryGST:        metal.Pricing.JewelryGST,
				MakingGST:         metal.Pricing.MakingGST,
			},
		}
		for _, variant := range metal.Variants {
			entry.Variants = append(entry.Variants, domain.MetalVariant{
				Purity:                    variant.Purity,
				NetWeight:                 variant.NetWeight,
				GrossWeight:               variant.GrossWeight,
				AvailableColors:           variant.AvailableColors,
				DefaultColor:              variant.DefaultColor,
				AvailableDiamondQualities: variant.AvailableDiamondQualities,
				DefaultDiamondQuality:     variant.DefaultDiamondQuality,
				Sizes:                     decodeSizes(variant.Sizes),
				DefaultSize:               variant.DefaultSize,
			})
		}
		cfg.Metals = append(cfg.Metals, entry)
	}
	for _, fixed := range doc.FixedMetals {
		cfg.FixedMetals = append(cfg.FixedMetals, domain.FixedMetal{
			Type:        domain.MetalType(fixed.Type),
			Purity:      fixed.Purity,
			NetWeight:   fixed.NetWeight,
			GrossWeight: fixed.GrossWeight,
			Sizes:       decodeSizes(fixed.Sizes),
		})
	}
	return cfg
}

func encodeSizes(sizes []domain.SizeWeight) []sizeWeightDocument {
	if len(sizes) == 0 {
		return nil
	}
	out := make([]sizeWeightDocument, 0, len(sizes))
	for _, size := range sizes {
		out = append(out, sizeWeightDocument{
			Size:        size.Size,
			NetWeight:   size.NetWeight,
			GrossWeight: size.GrossWeight,
		})
	}
	return out
}

func decodeSizes(sizes []sizeWeightDocument) []domain.SizeWeight {
	if len(sizes) == 0 {
		return nil
	}
	out := make([]domain.SizeWeight, 0, len(sizes))
	for _, size := range sizes {
		out = append(out, domain.SizeWeight{
			Size:        size.Size,
			NetWeight:   size.NetWeight,
			GrossWeight: size.GrossWeight,
		})
	}
	return out
}

func encodeProductPricing(pricing domain.ProductPricing) productPricingDocument {
	doc := productPricingDocument{
		FinalPrice:  pricing.FinalPrice,
		RateVersion: pricing.RateVersion,
		ResolvedAt:  pricing.ResolvedAt.UTC(),
	}
	if pricing.Breakdown != nil {
		bd := encodeBreakdown(*pricing.Breakdown)
		doc.Breakdown = &bd
	}
	return doc
}

func decodeProductPricing(doc productPricingDocument) domain.ProductPricing {
	pricing := domain.ProductPricing{
		FinalPrice:  doc.FinalPrice,
		RateVersion: doc.RateVersion,
		ResolvedAt:  doc.ResolvedAt,
	}
	if doc.Breakdown != nil {
		bd := decodeBreakdown(*doc.Breakdown)
		pricing.Breakdown = &bd
	}
	return pricing
}

func encodeBreakdown(bd domain.PriceBreakdown) priceBreakdownDocument {
	doc := priceBreakdownDocument{
		MetalType:          string(bd.MetalType),
		Purity:             bd.Purity,
		Size:               bd.Size,
		DiamondQuality:     bd.DiamondQuality,
		TotalMetalValue:    bd.TotalMetalValue,
		DiamondValue:       bd.DiamondValue,
		GemstoneValue:      bd.GemstoneValue,
		MakingChargeAmount: bd.MakingChargeAmount,
		WastageAmount:      bd.WastageAmount,
		StoneSetting:       bd.StoneSetting,
		DesignCharges:      bd.DesignCharges,
		Discount:           bd.Discount,
		Subtotal:           bd.Subtotal,
		JewelryTax:         bd.JewelryTax,
		LabourTax:          bd.LabourTax,
		FinalPrice:         bd.FinalPrice,
		Static:             bd.Static,
	}
	for _, line := range bd.MetalBreakdown {
		doc.MetalBreakdown = append(doc.MetalBreakdown, metalValueLineDocument{
			Type:      string(line.Type),
			Purity:    line.Purity,
			Fixed:     line.Fixed,
			NetWeight: line.NetWeight,
			Rate:      line.Rate,
			Value:     line.Value,
		})
	}
	return doc
}

func decodeBreakdown(doc priceBreakdownDocument) domain.PriceBreakdown {
	bd := domain.PriceBreakdown{
		MetalType:          domain.MetalType(doc.MetalType),
		Purity:             doc.Purity,
		Size:               doc.Size,
		DiamondQuality:     doc.DiamondQuality,
		TotalMetalValue:    doc.TotalMetalValue,
		DiamondValue:       doc.DiamondValue,
		GemstoneValue:      doc.GemstoneValue,
		MakingChargeAmount: doc.MakingChargeAmount,
		WastageAmount:      doc.WastageAmount,
		StoneSetting:       doc.StoneSetting,
		DesignCharges:      doc.DesignCharges,
		Discount:           doc.Discount,
		Subtotal:           doc.Subtotal,
		JewelryTax:         doc.JewelryTax,
		LabourTax:          doc.LabourTax,
		FinalPrice:         doc.FinalPrice,
		Static:             doc.Static,
	}
	for _, line := range doc.MetalBreakdown {
		bd.MetalBreakdown = append(bd.MetalBreakdown, domain.MetalValueLine{
			Type:      domain.MetalType(line.Type),
			Purity:    line.Purity,
			Fixed:     line.Fixed,
			NetWeight: line.NetWeight,
			Rate:      line.Rate,
			Value:     line.Value,
		})
	}
	return bd
}

func encodePriceRange(pr domain.PriceRange) priceRangeDocument {
	return priceRangeDocument{
		MinPrice:     pr.MinPrice,
		MaxPrice:     pr.MaxPrice,
		DefaultPrice: pr.DefaultPrice,
	}
}

func decodePriceRange(doc priceRangeDocument) domain.PriceRange {
	return domain.PriceRange{
		MinPrice:     doc.MinPrice,
		MaxPrice:     doc.MaxPrice,
		DefaultPrice: doc.DefaultPrice,
	}
}

type priceRangeDocument struct {
	MinPrice     int64 `firestore:"minPrice"`
	MaxPrice     int64 `firestore:"maxPrice"`
	DefaultPrice int64 `firestore:"defaultPrice"`
}

type productDocument struct {
	SKU            string                  `firestore:"sku"`
	Name           string                  `firestore:"name"`
	Category       string                  `firestore:"category"`
	Description    string                  `firestore:"description,omitempty"`
	Active         bool                    `firestore:"active"`
	ApprovalStatus string                  `firestore:"approvalStatus,omitempty"`
	Configurator   *configuratorDocument   `firestore:"configurator,omitempty"`
	Diamond        *diamondDocument        `firestore:"diamond,omitempty"`
	Gemstone       *gemstoneDocument       `firestore:"gemstone,omitempty"`
	ExtraCharges   *extraChargesDocument   `firestore:"extraCharges,omitempty"`
	Pricing        productPricingDocument  `firestore:"pricing"`
	PriceRange     *priceRangeDocument     `firestore:"priceRange,omitempty"`
	Images         []string                `firestore:"images,omitempty"`
	Tags           []string                `firestore:"tags,omitempty"`
	Metadata       map[string]any          `firestore:"metadata,omitempty"`
	CreatedAt      time.Time               `firestore:"createdAt"`
	UpdatedAt      time.Time               `firestore:"updatedAt"`
}

type configuratorDocument struct {
	Enabled          bool                        `firestore:"enabled"`
	DefaultMetalType string                      `firestore:"defaultMetalType,omitempty"`
	DefaultPurity    string                      `firestore:"defaultPurity,omitempty"`
	Metals           []configurableMetalDocument `firestore:"configurableMetals,omitempty"`
	FixedMetals      []fixedMetalDocument        `firestore:"fixedMetals,omitempty"`
}

type configurableMetalDocument struct {
	Type     string                 `firestore:"type"`
	Variants []metalVariantDocument `firestore:"variants,omitempty"`
	Pricing  metalPricingDocument   `firestore:"pricing"`
}

type metalVariantDocument struct {
	Purity                    string               `firestore:"purity"`
	NetWeight                 float64              `firestore:"netWeight"`
	GrossWeight               float64              `firestore:"grossWeight"`
	AvailableColors           []string             `firestore:"availableColors,omitempty"`
	DefaultColor              string               `firestore:"defaultColor,omitempty"`
	AvailableDiamondQualities []string             `firestore:"availableDiamondQualities,omitempty"`
	DefaultDiamondQuality     string               `firestore:"defaultDiamondQuality,omitempty"`
	Sizes                     []sizeWeightDocument `firestore:"sizes,omitempty"`
	DefaultSize               string               `firestore:"defaultSize,omitempty"`
}

type sizeWeightDocument struct {
	Size        string  `firestore:"size"`
	NetWeight   float64 `firestore:"netWeight"`
	GrossWeight float64 `firestore:"grossWeight"`
}

type fixedMetalDocument struct {
	Type        string               `firestore:"type"`
	Purity      string               `firestore:"purity"`
	NetWeight   float64              `firestore:"netWeight"`
	GrossWeight float64              `firestore:"grossWeight"`
	Sizes       []sizeWeightDocument `firestore:"sizes,omitempty"`
}

type metalPricingDocument struct {
	MakingChargeType  string  `firestore:"makingChargeType,omitempty"`
	MakingChargeValue float64 `firestore:"makingChargeValue,omitempty"`
	WastageType       string  `firestore:"wastageChargeType,omitempty"`
	WastageValue      float64 `firestore:"wastageChargeValue,omitempty"`
	JewelryGST        float64 `firestore:"jewelryGst,omitempty"`
	MakingGST         float64 `firestore:"makingGst,omitempty"`
}

type diamondDocument struct {
	TotalCaratWeight float64 `firestore:"totalCaratWeight"`
	StoneCount       int     `firestore:"stoneCount,omitempty"`
	DefaultQuality   string  `firestore:"defaultQuality,omitempty"`
}

type gemstoneDocument struct {
	Name  string  `firestore:"name,omitempty"`
	Value float64 `firestore:"value"`
}

type extraChargesDocument struct {
	StoneSetting float64 `firestore:"stoneSetting,omitempty"`
	Design       float64 `firestore:"design,omitempty"`
}

type productPricingDocument struct {
	FinalPrice  int64                   `firestore:"finalPrice"`
	Breakdown   *priceBreakdownDocument `firestore:"breakdown,omitempty"`
	RateVersion string                  `firestore:"rateVersion,omitempty"`
	ResolvedAt  time.Time               `firestore:"resolvedAt"`
}

type priceBreakdownDocument struct {
	MetalType          string                   `firestore:"metalType,omitempty"`
	Purity             string                   `firestore:"purity,omitempty"`
	Size               string                   `firestore:"size,omitempty"`
	DiamondQuality     string                   `firestore:"diamondQuality,omitempty"`
	TotalMetalValue    float64                  `firestore:"totalMetalValue"`
	MetalBreakdown     []metalValueLineDocument `firestore:"metalBreakdown,omitempty"`
	DiamondValue       float64                  `firestore:"diamondValue,omitempty"`
	GemstoneValue      float64                  `firestore:"gemstoneValue,omitempty"`
	MakingChargeAmount float64                  `firestore:"makingChargeAmount"`
	WastageAmount      float64                  `firestore:"wastageAmount,omitempty"`
	StoneSetting       float64                  `firestore:"stoneSettingCharges,omitempty"`
	DesignCharges      float64                  `firestore:"designCharges,omitempty"`
	Discount           float64                  `firestore:"discount,omitempty"`
	Subtotal           float64                  `firestore:"subtotal"`
	JewelryTax         float64                  `firestore:"jewelryTax"`
	LabourTax          float64                  `firestore:"labourTax"`
	FinalPrice         int64                    `firestore:"finalPrice"`
	Static             bool                     `firestore:"static,omitempty"`
}

type metalValueLineDocument struct {
	Type      string  `firestore:"type"`
	Purity    string  `firestore:"purity"`
	Fixed     bool    `firestore:"fixed,omitempty"`
	NetWeight float64 `firestore:"netWeight"`
	Rate      float64 `firestore:"rate"`
	Value     float64 `firestore:"value"`
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
