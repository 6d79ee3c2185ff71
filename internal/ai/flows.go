package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"qgsape/internal/domain"
)

// Moderation is the classifier verdict for one community post.
type Moderation struct {
	IsViolating bool   `json:"isViolating"`
	Reason      string `json:"reason"`
}

// ErrNoVerdict means the model answered without an isViolating value.
var ErrNoVerdict = errors.New("moderation answer has no verdict")

var moderationSchema = objectSchema([]string{"isViolating", "reason"}, map[string]*genai.Schema{
	"isViolating": {Type: genai.TypeBoolean},
	"reason":      stringSchema("Short explanation in French, empty when the content is acceptable."),
})

// Moderate classifies text posted on the community wall.
func (f *Flows) Moderate(ctx context.Context, text string) (Moderation, error) {
	prompt := `Tu modères le mur communautaire d'une boutique de mode.
Le contenu est-il haineux, harcelant, sexuellement explicite, violent, du spam ou une arnaque ?
Réponds en JSON avec isViolating et une raison courte en français.

Contenu :
` + text
	var answer struct {
		IsViolating *bool  `json:"isViolating"`
		Reason      string `json:"reason"`
	}
	if err := f.generateJSON(ctx, "moderate", []*genai.Part{genai.NewPartFromText(prompt)}, moderationSchema, &answer); err != nil {
		return Moderation{}, err
	}
	if answer.IsViolating == nil {
		return Moderation{}, ErrNoVerdict
	}
	return Moderation{IsViolating: *answer.IsViolating, Reason: answer.Reason}, nil
}

// DescriptionInput is what a manager knows about a new product.
type DescriptionInput struct {
	Name       string   `json:"name" binding:"required"`
	Categories []string `json:"categories"`
	Keywords   string   `json:"keywords"`
}

var descriptionSchema = objectSchema([]string{"description"}, map[string]*genai.Schema{
	"description": stringSchema("Product description in French, two short paragraphs."),
})

// DescribeProduct drafts a French marketing description.
func (f *Flows) DescribeProduct(ctx context.Context, in DescriptionInput) (string, error) {
	var b strings.Builder
	b.WriteString("Rédige une description de produit élégante et vendeuse, en français, pour LE QG DE LA SAPE.\n")
	fmt.Fprintf(&b, "Nom : %s\n", in.Name)
	if len(in.Categories) > 0 {
		fmt.Fprintf(&b, "Catégories : %s\n", strings.Join(in.Categories, ", "))
	}
	if in.Keywords != "" {
		fmt.Fprintf(&b, "Mots-clés : %s\n", in.Keywords)
	}
	var out struct {
		Description string `json:"description"`
	}
	if err := f.generateJSON(ctx, "describe_product", []*genai.Part{genai.NewPartFromText(b.String())}, descriptionSchema, &out); err != nil {
		return "", err
	}
	if out.Description == "" {
		return "", errors.New("describe_product: empty description")
	}
	return out.Description, nil
}

// LowStockThreshold marks a variant as low on stock.
const LowStockThreshold = 5

// StockAdviceItem is one recommendation for a product.
type StockAdviceItem struct {
	ProductID string `json:"productId"`
	Action    string `json:"action"`
	Reason    string `json:"reason"`
}

type StockAdvice struct {
	Summary string            `json:"summary"`
	Items   []StockAdviceItem `json:"items"`
}

var stockAdviceSchema = objectSchema([]string{"summary", "items"}, map[string]*genai.Schema{
	"summary": stringSchema("Overall advice in French."),
	"items": {
		Type: genai.TypeArray,
		Items: objectSchema([]string{"productId", "action", "reason"}, map[string]*genai.Schema{
			"productId": stringSchema("Id of the product, copied from the input."),
			"action":    stringSchema("Suggested action, for example reorder or promote."),
			"reason":    stringSchema("Why, in French."),
		}),
	},
})

// LowStock lists "name (size): stock" lines for variants at or below the threshold.
func LowStock(products []domain.Product, threshold int64) []string {
	var lines []string
	for _, p := range products {
		for _, v := range p.Variants {
			if v.Stock <= threshold {
				lines = append(lines, fmt.Sprintf("- id=%s %q taille %s : %d en stock, prix %d FCFA", p.ID, p.Name, v.Size, v.Stock, p.Price))
			}
		}
	}
	return lines
}

// AdviseStock asks for restocking advice on low-stock variants. When nothing is
// low it answers without calling the model.
func (f *Flows) AdviseStock(ctx context.Context, products []domain.Product) (StockAdvice, error) {
	low := LowStock(products, LowStockThreshold)
	if len(low) == 0 {
		return StockAdvice{Summary: "Aucun article en stock faible.", Items: []StockAdviceItem{}}, nil
	}
	prompt := "Tu es gestionnaire de stock d'une boutique de vêtements à Dakar.\n" +
		"Voici les variantes en stock faible :\n" + strings.Join(low, "\n") +
		"\nDonne un résumé et une action par produit."
	var advice StockAdvice
	if err := f.generateJSON(ctx, "advise_stock", []*genai.Part{genai.NewPartFromText(prompt)}, stockAdviceSchema, &advice); err != nil {
		return StockAdvice{}, err
	}
	known := productIDs(products)
	items := make([]StockAdviceItem, 0, len(advice.Items))
	for _, it := range advice.Items {
		if known[it.ProductID] {
			items = append(items, it)
		}
	}
	advice.Items = items
	return advice, nil
}

var productIDsSchema = objectSchema([]string{"productIds"}, map[string]*genai.Schema{
	"productIds": stringArraySchema("Ids copied from the catalog, best match first."),
})

// VisualSearch returns ids of catalog products resembling the image.
func (f *Flows) VisualSearch(ctx context.Context, image []byte, mimeType string, catalog []domain.Product) ([]string, error) {
	if len(image) == 0 {
		return nil, errors.New("visual_search: empty image")
	}
	prompt := "Voici une photo envoyée par un client et le catalogue de la boutique.\n" +
		"Retourne les ids des produits qui ressemblent le plus à la photo (au plus 8).\n\nCatalogue :\n" +
		catalogSummary(catalog, "")
	parts := []*genai.Part{genai.NewPartFromBytes(image, mimeType), genai.NewPartFromText(prompt)}
	var out struct {
		ProductIDs []string `json:"productIds"`
	}
	if err := f.generateJSON(ctx, "visual_search", parts, productIDsSchema, &out); err != nil {
		return nil, err
	}
	return keepKnown(out.ProductIDs, catalog, "", 8), nil
}

// Recommend returns up to limit ids of products that go well with p.
func (f *Flows) Recommend(ctx context.Context, p domain.Product, catalog []domain.Product, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 4
	}
	prompt := fmt.Sprintf("Un client regarde %q (%s).\n"+
		"Propose au plus %d produits complémentaires ou similaires du catalogue, sans répéter ce produit.\n\nCatalogue :\n%s",
		p.Name, strings.Join(p.Categories, ", "), limit, catalogSummary(catalog, p.ID))
	var out struct {
		ProductIDs []string `json:"productIds"`
	}
	if err := f.generateJSON(ctx, "recommend", []*genai.Part{genai.NewPartFromText(prompt)}, productIDsSchema, &out); err != nil {
		return nil, err
	}
	return keepKnown(out.ProductIDs, catalog, p.ID, limit), nil
}

func catalogSummary(catalog []domain.Product, exclude string) string {
	var b strings.Builder
	for _, p := range catalog {
		if p.ID == exclude {
			continue
		}
		fmt.Fprintf(&b, "- id=%s | %s | %s | %d FCFA\n", p.ID, p.Name, strings.Join(p.Categories, ","), p.Price)
	}
	return b.String()
}

func productIDs(products []domain.Product) map[string]bool {
	ids := make(map[string]bool, len(products))
	for _, p := range products {
		ids[p.ID] = true
	}
	return ids
}

// keepKnown drops hallucinated, duplicate and excluded ids.
func keepKnown(ids []string, catalog []domain.Product, exclude string, limit int) []string {
	known := productIDs(catalog)
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !known[id] || seen[id] || id == exclude {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}
