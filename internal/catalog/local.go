package catalog

import "sort"

// Local is the static, preloaded product catalog. It is read-only after
// construction and safe for concurrent use.
type Local struct {
	products []Product
	byID     map[string]int
}

// NewLocal indexes products by id. Later duplicates of an id are ignored.
func NewLocal(products []Product) *Local {
	l := &Local{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if _, dup := l.byID[p.ID]; dup {
			continue
		}
		p.Origin = OriginLocal
		p.Remote = nil
		l.byID[p.ID] = len(l.products)
		l.products = append(l.products, p)
	}
	return l
}

// DefaultLocal returns the brand catalog shipped with the storefront.
func DefaultLocal() *Local {
	return NewLocal(defaultProducts())
}

// All returns a copy of every product in catalog order.
func (l *Local) All() []Product {
	out := make([]Product, len(l.products))
	copy(out, l.products)
	return out
}

func (l *Local) ByID(id string) (Product, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Product{}, false
	}
	return l.products[i], true
}

func (l *Local) ByCategory(category string) []Product {
	return FilterByCategory(l.All(), category)
}

// Categories lists distinct categories sorted by name.
func (l *Local) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range l.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// Related suggests up to limit products for id: same category first, then
// any other product, in catalog order. The product itself is never included.
func (l *Local) Related(id string, limit int) []Product {
	if limit <= 0 {
		return []Product{}
	}
	self, ok := l.ByID(id)
	if !ok {
		return []Product{}
	}
	out := make([]Product, 0, limit)
	for _, p := range l.products {
		if len(out) == limit {
			return out
		}
		if p.ID != self.ID && p.Category == self.Category {
			out = append(out, p)
		}
	}
	for _, p := range l.products {
		if len(out) == limit {
			return out
		}
		if p.ID != self.ID && p.Category != self.Category {
			out = append(out, p)
		}
	}
	return out
}

func defaultProducts() []Product {
	return []Product{
		{
			ID:             "gentle-foaming-cleanser",
			Name:           "Gentle Foaming Cleanser",
			Price:          "$7.99",
			Category:       "Cleansers",
			Image:          "/images/products/gentle-foaming-cleanser.jpg",
			Images:         []string{"/images/products/gentle-foaming-cleanser.jpg", "/images/products/gentle-foaming-cleanser-2.jpg"},
			Description:    "A low-pH foaming cleanser that lifts away makeup and excess oil without stripping the skin barrier.",
			InStock:        true,
			Benefits:       []string{"Removes makeup and sunscreen", "Maintains skin pH", "Non-drying"},
			SkinType:       []string{"Normal", "Oily", "Combination"},
			KeyIngredients: []string{"Green Tea Extract", "Glycerin", "Panthenol"},
			AllIngredients: "Water, Glycerin, Cocamidopropyl Betaine, Sodium Cocoyl Glycinate, Camellia Sinensis Leaf Extract, Panthenol, Citric Acid, Phenoxyethanol.",
			HowToUse:       []string{"Wet face with lukewarm water.", "Massage a small amount into the skin.", "Rinse thoroughly."},
			Size:           "150ml",
		},
		{
			ID:             "hydrating-cream-cleanser",
			Name:           "Hydrating Cream Cleanser",
			Price:          "$9.99",
			Category:       "Cleansers",
			Image:          "/images/products/hydrating-cream-cleanser.jpg",
			Images:         []string{"/images/products/hydrating-cream-cleanser.jpg"},
			Description:    "A milky cream cleanser for dry and sensitive skin that leaves the face soft and comfortable.",
			InStock:        true,
			Benefits:       []string{"Cleanses without tightness", "Soothes sensitive skin"},
			SkinType:       []string{"Dry", "Sensitive"},
			KeyIngredients: []string{"Ceramides", "Oat Extract"},
			AllIngredients: "Water, Caprylic/Capric Triglyceride, Glycerin, Ceramide NP, Avena Sativa Kernel Extract, Cetearyl Alcohol, Phenoxyethanol.",
			HowToUse:       []string{"Apply to dry or damp skin.", "Massage gently for 30 seconds.", "Rinse or wipe off with a soft cloth."},
			Size:           "200ml",
		},
		{
			ID:             "niacinamide-10-serum",
			Name:           "Niacinamide 10% Serum",
			Price:          "$15.99",
			Category:       "Serums",
			Image:          "/images/products/niacinamide-10-serum.jpg",
			Images:         []string{"/images/products/niacinamide-10-serum.jpg", "/images/products/niacinamide-10-serum-texture.jpg"},
			Description:    "A lightweight serum that visibly refines pores and balances oil production.",
			InStock:        true,
			Benefits:       []string{"Minimizes the look of pores", "Balances sebum", "Evens skin tone"},
			SkinType:       []string{"Oily", "Combination", "Normal"},
			KeyIngredients: []string{"Niacinamide", "Zinc PCA"},
			AllIngredients: "Water, Niacinamide, Pentylene Glycol, Zinc PCA, Tamarindus Indica Seed Gum, Xanthan Gum, Phenoxyethanol.",
			HowToUse:       []string{"Apply a few drops to clean skin morning and evening.", "Follow with moisturizer."},
			Size:           "30ml",
		},
		{
			ID:             "vitamin-c-brightening-serum",
			Name:           "Vitamin C Brightening Serum",
			Price:          "$24.99",
			Category:       "Serums",
			Image:          "/images/products/vitamin-c-brightening-serum.jpg",
			Images:         []string{"/images/products/vitamin-c-brightening-serum.jpg"},
			Description:    "A stabilized vitamin C serum that brightens dullness and supports an even complexion.",
			InStock:        true,
			Benefits:       []string{"Brightens dull skin", "Antioxidant protection", "Fades the look of dark spots"},
			SkinType:       []string{"All"},
			KeyIngredients: []string{"Ascorbyl Glucoside", "Ferulic Acid", "Vitamin E"},
			AllIngredients: "Water, Ascorbyl Glucoside, Propanediol, Ferulic Acid, Tocopherol, Sodium Hyaluronate, Phenoxyethanol.",
			HowToUse:       []string{"Apply in the morning after cleansing.", "Always follow with sunscreen."},
			Size:           "30ml",
		},
		{
			ID:             "hyaluronic-acid-serum",
			Name:           "Hyaluronic Acid Serum",
			Price:          "$12.99",
			Category:       "Serums",
			Image:          "/images/products/hyaluronic-acid-serum.jpg",
			Images:         []string{"/images/products/hyaluronic-acid-serum.jpg"},
			Description:    "Multi-weight hyaluronic acid for deep, lasting hydration.",
			InStock:        false,
			Benefits:       []string{"Intense hydration", "Plumps fine lines"},
			SkinType:       []string{"All"},
			KeyIngredients: []string{"Sodium Hyaluronate", "Panthenol"},
			AllIngredients: "Water, Sodium Hyaluronate, Hydrolyzed Hyaluronic Acid, Panthenol, Pentylene Glycol, Phenoxyethanol.",
			HowToUse:       []string{"Apply to damp skin.", "Seal in with moisturizer."},
			Size:           "30ml",
		},
		{
			ID:             "barrier-repair-moisturizer",
			Name:           "Barrier Repair Moisturizer",
			Price:          "$18.99",
			Category:       "Moisturizers",
			Image:          "/images/products/barrier-repair-moisturizer.jpg",
			Images:         []string{"/images/products/barrier-repair-moisturizer.jpg"},
			Description:    "A rich ceramide cream that restores the skin barrier overnight.",
			InStock:        true,
			Benefits:       []string{"Restores the moisture barrier", "Calms redness"},
			SkinType:       []string{"Dry", "Sensitive", "Normal"},
			KeyIngredients: []string{"Ceramides", "Cholesterol", "Squalane"},
			AllIngredients: "Water, Squalane, Glycerin, Ceramide NP, Ceramide AP, Cholesterol, Phytosphingosine, Cetearyl Alcohol, Phenoxyethanol.",
			HowToUse:       []string{"Apply as the last step of your evening routine."},
			Size:           "50ml",
		},
		{
			ID:             "oil-free-gel-moisturizer",
			Name:           "Oil-Free Gel Moisturizer",
			Price:          "$14.99",
			Category:       "Moisturizers",
			Image:          "/images/products/oil-free-gel-moisturizer.jpg",
			Images:         []string{"/images/products/oil-free-gel-moisturizer.jpg"},
			Description:    "A weightless water-gel that hydrates without shine.",
			InStock:        true,
			Benefits:       []string{"Lightweight hydration", "Matte finish"},
			SkinType:       []string{"Oily", "Combination"},
			KeyIngredients: []string{"Hyaluronic Acid", "Centella Asiatica"},
			AllIngredients: "Water, Glycerin, Butylene Glycol, Sodium Hyaluronate, Centella Asiatica Extract, Carbomer, Phenoxyethanol.",
			HowToUse:       []string{"Apply morning and evening to clean skin."},
			Size:           "50ml",
		},
		{
			ID:             "balancing-toner",
			Name:           "Balancing Toner",
			Price:          "$10.99",
			Category:       "Toners",
			Image:          "/images/products/balancing-toner.jpg",
			Images:         []string{"/images/products/balancing-toner.jpg"},
			Description:    "An alcohol-free toner that restores balance after cleansing.",
			InStock:        true,
			Benefits:       []string{"Rebalances skin", "Preps for serums"},
			SkinType:       []string{"All"},
			KeyIngredients: []string{"Rose Water", "Betaine"},
			AllIngredients: "Rosa Damascena Flower Water, Betaine, Glycerin, Allantoin, Phenoxyethanol.",
			HowToUse:       []string{"Sweep over the face with a cotton pad or pat in with hands."},
			Size:           "200ml",
		},
		{
			ID:             "clay-detox-mask",
			Name:           "Clay Detox Mask",
			Price:          "$16.99",
			Category:       "Masks",
			Image:          "/images/products/clay-detox-mask.jpg",
			Images:         []string{"/images/products/clay-detox-mask.jpg"},
			Description:    "A kaolin and bentonite mask that draws out impurities.",
			InStock:        true,
			Benefits:       []string{"Deep cleans pores", "Absorbs excess oil"},
			SkinType:       []string{"Oily", "Combination"},
			KeyIngredients: []string{"Kaolin", "Bentonite", "Charcoal Powder"},
			AllIngredients: "Kaolin, Water, Bentonite, Glycerin, Charcoal Powder, Salicylic Acid, Phenoxyethanol.",
			HowToUse:       []string{"Apply an even layer to clean skin.", "Leave on for 10 minutes.", "Rinse with warm water."},
			Size:           "100ml",
		},
		{
			ID:             "daily-mineral-sunscreen-spf50",
			Name:           "Daily Mineral Sunscreen SPF 50",
			Price:          "$19.99",
			Category:       "Sunscreen",
			Image:          "/images/products/daily-mineral-sunscreen-spf50.jpg",
			Images:         []string{"/images/products/daily-mineral-sunscreen-spf50.jpg"},
			Description:    "A sheer zinc oxide sunscreen with no white cast.",
			InStock:        true,
			Benefits:       []string{"Broad spectrum SPF 50", "No white cast", "Reef friendly"},
			SkinType:       []string{"All"},
			KeyIngredients: []string{"Zinc Oxide", "Niacinamide"},
			AllIngredients: "Zinc Oxide 20%, Water, Caprylic/Capric Triglyceride, Niacinamide, Glycerin, Tocopherol, Phenoxyethanol.",
			HowToUse:       []string{"Apply generously as the last step of your morning routine.", "Reapply every two hours in sun."},
			Size:           "50ml",
		},
	}
}
