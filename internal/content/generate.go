package content

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

var generatorTitleWords = []string{
	"Innovative", "Strategic", "Dynamic", "Sustainable", "Efficient",
	"Creative", "Productive", "Optimized", "Advanced", "Integrated",
	"Customized", "Responsive", "Versatile", "Streamlined", "Adaptive",
	"Scalable", "Robust", "Intuitive", "Seamless", "Comprehensive",
}

var generatorContentWords = []string{
	"implement", "utilize", "integrate", "streamline", "optimize",
	"leverage", "innovate", "generate", "cultivate", "iterate",
	"synthesize", "deploy", "brand", "grow", "target",
	"revolutionize", "transform", "embrace", "enable", "orchestrate",
	"conceptualize", "redefine", "aggregate", "architect", "enhance",
	"incentivize", "morph", "empower", "envisioneer", "monetize",
	"harness", "facilitate", "seize", "disintermediate", "synergize",
	"strategize", "engage", "maximize", "benchmark", "expedite",
	"reintermediate", "whiteboard", "visualize", "repurpose", "scale",
	"unleash", "drive", "extend", "engineer", "exploit",
	"transition", "e-enable", "matrix", "productize", "recontextualize",
	"reinvent", "syndicate", "deliver", "mesh",
}

var generatorNames = []string{
	"Alex Morgan", "Jamie Chen", "Sam Okafor", "Robin Patel",
	"Casey Nguyen", "Jordan Reyes", "Taylor Brooks", "Morgan Silva",
}

// Generator produces synthetic content for load testing. It writes through
// the repository so mutation hooks fire exactly as they would for real
// traffic.
type Generator struct {
	repo *Repo
	rng  *rand.Rand
}

// NewGenerator creates a generator with a fixed seed so runs are
// reproducible.
func NewGenerator(repo *Repo, seed int64) *Generator {
	return &Generator{repo: repo, rng: rand.New(rand.NewSource(seed))}
}

// Documents generates count synthetic documents.
func (g *Generator) Documents(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		if _, err := g.repo.CreateDocument(ctx,
			g.title("Document"), g.body()); err != nil {
			return fmt.Errorf("generate document: %w", err)
		}
	}
	return nil
}

// Assets generates count synthetic assets.
func (g *Generator) Assets(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		title := g.title("Asset")
		if _, err := g.repo.CreateAsset(ctx, title,
			"Illustration of "+strings.ToLower(title),
			fmt.Sprintf("https://example.test/media/gen-%d.png", i+1),
			""); err != nil {
			return fmt.Errorf("generate asset: %w", err)
		}
	}
	return nil
}

// Orders generates count synthetic orders.
func (g *Generator) Orders(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		name := generatorNames[g.rng.Intn(len(generatorNames))]
		order := Order{
			Number:        fmt.Sprintf("%05d", g.rng.Intn(90000)+10000),
			CustomerName:  name,
			CustomerEmail: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.test",
			BillingAddress: fmt.Sprintf("%d Main Street, Springfield",
				g.rng.Intn(9000)+100),
			SKU:   fmt.Sprintf("SKU-%04d", g.rng.Intn(10000)),
			Total: float64(g.rng.Intn(91)+10) + 0.99,
		}
		if _, err := g.repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("generate order: %w", err)
		}
	}
	return nil
}

// All generates count of each category.
func (g *Generator) All(ctx context.Context, count int) error {
	if err := g.Documents(ctx, count); err != nil {
		return err
	}
	if err := g.Assets(ctx, count); err != nil {
		return err
	}
	return g.Orders(ctx, count)
}

// QueryTerms returns n random single-word terms drawn from the generated
// vocabulary, for replaying search traffic against a generated corpus.
func (g *Generator) QueryTerms(n int) []string {
	terms := make([]string, n)
	for i := range terms {
		terms[i] = generatorContentWords[g.rng.Intn(len(generatorContentWords))]
	}
	return terms
}

func (g *Generator) title(prefix string) string {
	n := g.rng.Intn(3) + 3
	words := make([]string, n)
	for i := range words {
		words[i] = generatorTitleWords[g.rng.Intn(len(generatorTitleWords))]
	}
	return fmt.Sprintf("%s: %s %06x", prefix, strings.Join(words, " "), g.rng.Int31n(1<<24))
}

func (g *Generator) body() string {
	paragraphs := g.rng.Intn(5) + 3
	var b strings.Builder
	for p := 0; p < paragraphs; p++ {
		sentences := g.rng.Intn(6) + 3
		for s := 0; s < sentences; s++ {
			n := g.rng.Intn(8) + 8
			words := make([]string, n)
			for i := range words {
				words[i] = generatorContentWords[g.rng.Intn(len(generatorContentWords))]
			}
			sentence := strings.Join(words, " ")
			b.WriteString(strings.ToUpper(sentence[:1]) + sentence[1:] + ". ")
		}
		if p < paragraphs-1 {
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}
