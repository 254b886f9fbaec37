package jewel

// Prompt asks for the five fixed sections the formatter expects.
const Prompt = "Analyze this jewelry image and provide the following information:\n" +
	"1. Jewelry identification (type, style, metal, primary gemstone, carat weight, setting)\n" +
	"2. Gemstone and metal details (quality, characteristics, purity, dimensions, style, additional features)\n" +
	"3. Craftsmanship and design (era/period, origin, craftsmanship level, manufacturing method, unique details, design appeal)\n" +
	"4. Value and quality assessment (estimated retail value, quality rating, investment potential, authenticity marks, quality indicators, certification)\n" +
	"5. Purchase and care information (where to buy similar, price range, care instructions, insurance recommendation, common issues, alternatives)\n" +
	"\n" +
	"This is for informational purposes only."

// DefaultImagePath is where the web frontend serves the bundled sample photo.
const DefaultImagePath = "/default-jewelry.jpg"

// DefaultAnalysis accompanies the bundled sample photo so a fresh session has something to show.
const DefaultAnalysis = `1. Jewelry Identification:
- Type: Diamond Ring
- Style: Solitaire Engagement Ring
- Metal: 18K White Gold
- Primary Gemstone: Diamond (Round Brilliant Cut)
- Carat Weight: Approximately 1.25 carats
- Setting: 6-Prong Cathedral Setting

2. Gemstone & Metal Details:
- Diamond Quality: VS1-VS2 clarity, F-G color
- Diamond Characteristics: Excellent cut, high brilliance
- Metal Purity: 18K (75% gold)
- Band Width: Approximately 2mm
- Band Style: Polished finish with tapered shoulders
- Additional Features: Hidden halo of micro-pavé diamonds on basket

3. Craftsmanship & Design:
- Era/Period: Contemporary
- Design Origin: Classic American style
- Craftsmanship Level: High-quality commercial
- Manufacturing Method: Cast with hand-finished details
- Unique Details: Cathedral-style mounting increases perceived size
- Design Appeal: Timeless, elegant, high visual impact

4. Value & Quality Assessment:
- Estimated Retail Value: $8,000-$12,000 USD
- Quality Rating: High (8/10)
- Investment Potential: Good (diamonds retain value)
- Authenticity Marks: Should have stamp indicating 18K gold
- Quality Indicators: Well-proportioned diamond, even prongs, consistent metal finish
- Certification: Likely comes with GIA certification for center stone

5. Purchase & Care Information:
- Where to Buy Similar: Blue Nile, James Allen, Brilliant Earth, local jewelers
- Price Range: $6,500-$15,000 depending on exact diamond specifications
- Care Instructions: Clean with mild soap and soft brush, professional cleaning twice yearly
- Insurance Recommendation: Should be insured for full replacement value
- Common Issues: Prongs may need tightening over time
- Similar Alternatives: Platinum setting, different diamond shapes (oval, cushion)`

const (
	Title      = "Free Jewelry Identifier"
	Tagline    = "Upload a jewelry photo for gemstone identification and valuation information"
	Disclaimer = "For informational purposes only. Find and learn about jewelry, gemstones, and precious metals safely and efficiently."
)

// Features is the "why use it" list shown on the about page and in /about.
var Features = []string{
	"Advanced AI jewelry recognition technology",
	"Detailed gemstone and metal identification",
	"Craftsmanship and design specifications",
	"Value estimation and quality assessment",
	"Shopping recommendations and care instructions",
	"Completely free to use",
	"No registration required",
	"Privacy-focused approach",
}
