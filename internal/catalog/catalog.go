// Package catalog holds the static design-option data for every renderable
// subcategory. It is configuration, not mutable state: nothing here changes at
// runtime, and new subcategories are added by editing the tables below.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the coarse partition of renderings.
type Category string

const (
	CategoryExterior Category = "EXTERIOR"
	CategoryRoom     Category = "ROOM"
)

const (
	FrontExterior = "Front Exterior"
	BackExterior  = "Back Exterior"
)

// ErrUnknownSubcategory indicates a subcategory not present in the catalog.
var ErrUnknownSubcategory = errors.New("unknown subcategory")

// Option is one selectable design attribute with its allowed values, in
// display order. The first value is the default shown to the user; "None"/"No"
// are sentinels meaning the feature is omitted.
type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

var exteriorSubcategories = []string{FrontExterior, BackExterior}

var basicRooms = []string{
	"Living Room", "Kitchen", "Home Office",
	"Primary Bedroom", "Primary Bathroom",
	"Other Bedroom", "Half Bath", "Family Room",
}

var basementRooms = []string{
	"Basement: Game Room", "Basement: Gym", "Basement: Theater Room", "Basement: Hallway",
}

var options = map[string][]Option{
	FrontExterior: {
		{Name: "Siding Material", Values: []string{"Brick", "Stucco", "Fiber-cement", "Wood plank", "Stone veneer"}},
		{Name: "Roof Style", Values: []string{"Gable", "Hip", "Flat parapet", "Dutch gable", "Modern shed"}},
		{Name: "Window Trim Color", Values: []string{"Matte black", "Crisp white", "Bronze", "Charcoal gray", "Forest green"}},
		{Name: "Landscaping", Values: []string{"Boxwood hedges", "Desert xeriscape", "Lush tropical", "Minimalist gravel", "Cottage garden"}},
		{Name: "Vehicle", Values: []string{"None", "Luxury sedan", "Pickup truck", "SUV", "Sports car"}},
		{Name: "Driveway Material", Values: []string{"Concrete", "Pavers", "Gravel", "Stamped concrete", "Asphalt"}},
		{Name: "Driveway Shape", Values: []string{"Straight", "Curved", "Circular", "Side-load", "Split"}},
		{Name: "Gate Style", Values: []string{"No gate", "Modern slat", "Wrought iron", "Farm style", "Privacy panel"}},
		{Name: "Garage Style", Values: []string{"Single", "Double", "Carriage", "Glass-paneled", "Side-load"}},
	},
	BackExterior: {
		{Name: "Siding Material", Values: []string{"Brick", "Stucco", "Fiber-cement", "Wood plank", "Stone veneer"}},
		{Name: "Roof Style", Values: []string{"Gable", "Hip", "Flat parapet", "Dutch gable", "Modern shed"}},
		{Name: "Window Trim Color", Values: []string{"Matte black", "Crisp white", "Bronze", "Charcoal gray", "Forest green"}},
		{Name: "Landscaping", Values: []string{"Boxwood hedges", "Desert xeriscape", "Lush tropical", "Minimalist gravel", "Cottage garden"}},
		{Name: "Swimming Pool", Values: []string{"None", "Rectangular", "Freeform", "Infinity edge", "Lap pool"}},
		{Name: "Paradise Grills", Values: []string{"None", "Compact island", "L-shaped", "U-shaped", "Pergola bar"}},
		{Name: "Basketball Court", Values: []string{"None", "Half court", "Key only", "Sport tile pad", "Full court"}},
		{Name: "Water Fountain", Values: []string{"None", "Tiered stone", "Modern sheetfall", "Bubbling urns", "Pond with jets"}},
		{Name: "Putting Green", Values: []string{"None", "Single hole", "Two hole", "Wavy 3-hole", "Chipping fringe"}},
	},
	"Living Room": {
		{Name: "Flooring", Values: []string{"Wide oak", "Walnut herringbone", "Polished concrete", "Natural stone", "Eco bamboo"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Recessed", "Chandelier", "Floor lamps", "Track", "Wall sconces"}},
		{Name: "Furniture Style", Values: []string{"Modern", "Transitional", "Traditional", "Scandinavian", "Industrial"}},
		{Name: "Chairs", Values: []string{"Lounge pair", "Wingback", "Accent swivel", "Mid-century", "Club chairs"}},
		{Name: "Coffee Tables", Values: []string{"Marble slab", "Glass oval", "Reclaimed wood", "Nested set", "Stone drum"}},
		{Name: "Wine Storage", Values: []string{"None", "Built-in wall", "Freestanding rack", "Glass wine room", "Under-stairs"}},
		{Name: "Fireplace", Values: []string{"No", "Yes"}},
		{Name: "Door Style", Values: []string{"French", "Pocket", "Barn", "Glass pivot", "Standard panel"}},
	},
	"Kitchen": {
		{Name: "Flooring", Values: []string{"Wide oak", "Walnut herringbone", "Polished concrete", "Porcelain tile", "Terrazzo"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Recessed", "Linear pendant", "Island pendants", "Ceiling fixtures", "Under-cabinet"}},
		{Name: "Cabinet Style", Values: []string{"Shaker", "Flat-slab", "Inset", "Beaded", "Glass front"}},
		{Name: "Countertops", Values: []string{"Quartz", "Marble", "Granite", "Butcher block", "Concrete"}},
		{Name: "Appliances", Values: []string{"Stainless", "Panel-ready", "Black stainless", "Mixed metals", "Pro-grade"}},
		{Name: "Backsplash", Values: []string{"Subway", "Herringbone", "Slab stone", "Zellige", "Hex tile"}},
		{Name: "Sink", Values: []string{"Farmhouse", "Undermount SS", "Integrated stone", "Workstation", "Apron copper"}},
		{Name: "Island Lights", Values: []string{"Three pendants", "Linear bar", "Two globes", "Can lights", "Mixed fixtures"}},
	},
	"Home Office": {
		{Name: "Flooring", Values: []string{"Wide oak", "Carpet tile", "Polished concrete", "Cork", "Laminate"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Task lamp", "Track", "Recessed", "Pendant", "Wall sconces"}},
		{Name: "Desk Style", Values: []string{"Standing", "Executive wood", "Minimalist metal", "L-shaped", "Dual sit-stand"}},
		{Name: "Office Chair", Values: []string{"Ergonomic mesh", "Leather executive", "Task chair", "Stool", "Kneeling"}},
		{Name: "Storage", Values: []string{"Open shelves", "Closed cabinets", "Mixed", "Credenza", "Wall system"}},
	},
	"Primary Bedroom": {
		{Name: "Flooring", Values: []string{"Plush carpet", "Wide oak", "Cork", "Laminate", "Engineered wood"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Recessed", "Chandelier", "Wall sconces", "Ceiling fixture", "Bedside lamps"}},
		{Name: "Bed Style", Values: []string{"Upholstered", "Canopy", "Platform wood", "Metal frame", "Storage bed"}},
		{Name: "Furniture Style", Values: []string{"Modern", "Transitional", "Traditional", "Scandinavian", "Industrial"}},
		{Name: "Closet Design", Values: []string{"Reach-in", "Walk-in", "Wardrobe wall", "His/Hers", "Island closet"}},
		{Name: "Ceiling Fan", Values: []string{"None", "Modern", "Wood blade", "Industrial", "Retractable"}},
	},
	"Primary Bathroom": {
		{Name: "Flooring", Values: []string{"Porcelain tile", "Marble", "Terrazzo", "Natural stone", "Concrete"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Sconces", "Backlit mirror", "Recessed", "Pendant", "Chandelier"}},
		{Name: "Vanity Style", Values: []string{"Floating", "Furniture look", "Double", "Open shelf", "Integrated"}},
		{Name: "Shower or Tub", Values: []string{"Large shower", "Freestanding tub", "Tub-shower", "Wet room", "Steam shower"}},
		{Name: "Tile Style", Values: []string{"Subway", "Hex", "Slab stone", "Zellige", "Mosaic"}},
		{Name: "Bathroom Sink", Values: []string{"Undermount", "Vessel", "Integrated", "Pedestal", "Trough"}},
		{Name: "Mirror Style", Values: []string{"Framed", "Backlit", "Arched", "Round", "Edge-lit"}},
		{Name: "Balcony", Values: []string{"No", "Yes"}},
	},
	"Other Bedroom": {
		{Name: "Flooring", Values: []string{"Plush carpet", "Wide oak", "Cork", "Laminate", "Engineered wood"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Recessed", "Chandelier", "Wall sconces", "Ceiling fixture", "Bedside lamps"}},
		{Name: "Bed Style", Values: []string{"Upholstered", "Canopy", "Platform wood", "Metal frame", "Storage bed"}},
		{Name: "Furniture Style", Values: []string{"Modern", "Transitional", "Traditional", "Scandinavian", "Industrial"}},
		{Name: "Ceiling Fan", Values: []string{"None", "Modern", "Wood blade", "Industrial", "Retractable"}},
		{Name: "Balcony", Values: []string{"No", "Yes"}},
	},
	"Half Bath": {
		{Name: "Flooring", Values: []string{"Porcelain tile", "Marble", "Terrazzo", "Natural stone", "Concrete"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Sconces", "Backlit mirror", "Recessed", "Pendant", "Chandelier"}},
		{Name: "Vanity Style", Values: []string{"Floating", "Furniture look", "Single", "Pedestal", "Console"}},
		{Name: "Tile Style", Values: []string{"Subway", "Hex", "Slab stone", "Zellige", "Mosaic"}},
		{Name: "Mirror Style", Values: []string{"Framed", "Backlit", "Arched", "Round", "Edge-lit"}},
	},
	"Family Room": {
		{Name: "Flooring", Values: []string{"Wide oak", "Walnut herringbone", "Polished concrete", "Natural stone", "Eco bamboo"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Recessed", "Chandelier", "Floor lamps", "Track", "Wall sconces"}},
		{Name: "Furniture Style", Values: []string{"Modern", "Transitional", "Traditional", "Scandinavian", "Industrial"}},
		{Name: "Chairs", Values: []string{"Lounge pair", "Wingback", "Accent swivel", "Mid-century", "Club chairs"}},
	},
	"Basement: Game Room": {
		{Name: "Flooring", Values: []string{"Carpet tile", "Vinyl plank", "Cork", "Concrete stain", "Rubber tile"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Track", "Recessed", "Neon accent", "Pendant", "Sconces"}},
		{Name: "Pool Table", Values: []string{"Classic wood", "Modern black", "Industrial", "Contemporary white", "Tournament"}},
		{Name: "Wine Bar", Values: []string{"None", "Back bar", "Wet bar", "Island bar", "Wall niche"}},
		{Name: "Arcade Games", Values: []string{"Pinball", "Racing", "Fighting", "Retro cabinets", "Skeeball"}},
		{Name: "Other Table Games", Values: []string{"Air hockey", "Foosball", "Shuffleboard", "Darts", "Poker"}},
	},
	"Basement: Gym": {
		{Name: "Flooring", Values: []string{"Rubber tile", "Vinyl plank", "Cork", "Foam mat", "Concrete seal"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Track", "Recessed", "Neon accent", "Pendant", "Sconces"}},
		{Name: "Equipment", Values: []string{"Treadmill", "Bike", "Rowing", "Cable station", "Free weights"}},
		{Name: "Gym Station", Values: []string{"Smith machine", "Power rack", "Functional trainer", "Multi-gym", "Calisthenics"}},
		{Name: "Steam Room", Values: []string{"No", "Yes"}},
	},
	"Basement: Theater Room": {
		{Name: "Flooring", Values: []string{"Carpet tile", "Plush carpet", "Cork", "Laminate", "Acoustic floor"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Charcoal", "Burgundy", "Navy", "Chocolate brown"}},
		{Name: "Lighting", Values: []string{"Step lights", "Wall sconces", "Star ceiling", "Recessed", "LED strips"}},
		{Name: "Wall Treatment", Values: []string{"Acoustic panels", "Fabric", "Wood slats", "Velvet", "Painted drywall"}},
		{Name: "Seating", Values: []string{"Recliners", "Sofas", "Stadium rows", "Bean bags", "Mixed"}},
		{Name: "Popcorn Machine", Values: []string{"No", "Yes"}},
		{Name: "Sound System", Values: []string{"5.1", "7.1", "Atmos", "Soundbar", "Hidden in-wall"}},
		{Name: "Screen Type", Values: []string{"Projector", "MicroLED", "OLED", "Ultra-short-throw", "Acoustically transparent"}},
		{Name: "Movie Posters", Values: []string{"No", "Yes"}},
		{Name: "Show Movie", Values: []string{"No", "Yes"}},
	},
	"Basement: Hallway": {
		{Name: "Flooring", Values: []string{"Carpet tile", "Vinyl plank", "Cork", "Concrete stain", "Rubber tile"}},
		{Name: "Wall Color", Values: []string{"Warm white", "Greige", "Deep navy", "Sage", "Charcoal"}},
		{Name: "Lighting", Values: []string{"Track", "Recessed", "Neon accent", "Pendant", "Sconces"}},
		{Name: "Stairs", Values: []string{"Open riser", "Closed", "Glass rail", "Wood rail", "Metal rail"}},
	},
}

// Options returns the ordered option list for a subcategory, or nil when the
// subcategory is not in the catalog.
func Options(subcategory string) []Option {
	opts, ok := options[subcategory]
	if !ok {
		return nil
	}
	out := make([]Option, len(opts))
	for i, o := range opts {
		out[i] = Option{Name: o.Name, Values: append([]string(nil), o.Values...)}
	}
	return out
}

// Known reports whether the subcategory exists in the catalog.
func Known(subcategory string) bool {
	_, ok := options[subcategory]
	return ok
}

// CategoryOf maps a subcategory to its coarse category.
func CategoryOf(subcategory string) (Category, error) {
	if !Known(subcategory) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubcategory, subcategory)
	}
	if subcategory == FrontExterior || subcategory == BackExterior {
		return CategoryExterior, nil
	}
	return CategoryRoom, nil
}

// Exteriors returns the fixed exterior pair, front first.
func Exteriors() []string {
	return append([]string(nil), exteriorSubcategories...)
}

// Rooms returns the selectable room subcategories for a home description.
// Basement rooms are included only when the description mentions a basement.
func Rooms(description string) []string {
	rooms := append([]string(nil), basicRooms...)
	if HasBasement(description) {
		rooms = append(rooms, basementRooms...)
	}
	return rooms
}

// HasBasement reports whether the description asks for a basement.
func HasBasement(description string) bool {
	return strings.Contains(strings.ToLower(description), "basement")
}

// ValidateSelections checks that every selected option name is declared for
// the subcategory. Unknown names are rejected rather than silently dropped.
func ValidateSelections(subcategory string, selections map[string]string) error {
	opts, ok := options[subcategory]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSubcategory, subcategory)
	}
	declared := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		declared[o.Name] = struct{}{}
	}
	for name := range selections {
		if _, ok := declared[name]; !ok {
			return fmt.Errorf("option %q is not declared for %q", name, subcategory)
		}
	}
	return nil
}
