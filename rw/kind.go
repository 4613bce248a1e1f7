package rw

// Kind is node category decided once when node is created so traversal code
// never compares tag strings.
type Kind int

const (
	KindOther Kind = iota
	KindExport
	KindDefinition
	KindDetails
	KindContents
	KindTopic
	KindAlias
	KindLinkage
	KindSection
	KindSnippet
	KindAnnotation
	KindGMDirections
	KindExtObject
	KindSmartImage
	KindAsset
	KindMapPin
	KindTagAssign
	KindGameDate
	KindDateRange
	KindSpan
	KindParagraph
)

var kindTags = map[string]Kind{
	"export":        KindExport,
	"definition":    KindDefinition,
	"details":       KindDetails,
	"contents":      KindContents,
	"topic":         KindTopic,
	"alias":         KindAlias,
	"linkage":       KindLinkage,
	"section":       KindSection,
	"snippet":       KindSnippet,
	"annotation":    KindAnnotation,
	"gm_directions": KindGMDirections,
	"ext_object":    KindExtObject,
	"smart_image":   KindSmartImage,
	"asset":         KindAsset,
	"map_pin":       KindMapPin,
	"tag_assign":    KindTagAssign,
	"game_date":     KindGameDate,
	"date_range":    KindDateRange,
	"span":          KindSpan,
	"p":             KindParagraph,
}

func kindOf(tag string) Kind {
	if k, ok := kindTags[tag]; ok {
		return k
	}
	return KindOther
}

func (k Kind) String() string {
	for tag, v := range kindTags {
		if v == k {
			return tag
		}
	}
	return "other"
}

// SnippetType selects one of the snippet variants.
type SnippetType int

const (
	SnippetUnknown SnippetType = iota
	SnippetMultiLine
	SnippetLabeledText
	SnippetPortfolio
	SnippetPicture
	SnippetPDF
	SnippetAudio
	SnippetVideo
	SnippetStatblock
	SnippetForeign
	SnippetRichText
	SnippetSmartImage
	SnippetDateGame
	SnippetDateRange
	SnippetTagStandard
	SnippetTagMultiDomain
	SnippetNumeric
	SnippetHybridTag
)

var snippetTypes = []string{
	SnippetUnknown:        "",
	SnippetMultiLine:      "Multi_Line",
	SnippetLabeledText:    "Labeled_Text",
	SnippetPortfolio:      "Portfolio",
	SnippetPicture:        "Picture",
	SnippetPDF:            "PDF",
	SnippetAudio:          "Audio",
	SnippetVideo:          "Video",
	SnippetStatblock:      "Statblock",
	SnippetForeign:        "Foreign",
	SnippetRichText:       "Rich_Text",
	SnippetSmartImage:     "Smart_Image",
	SnippetDateGame:       "Date_Game",
	SnippetDateRange:      "Date_Range",
	SnippetTagStandard:    "Tag_Standard",
	SnippetTagMultiDomain: "Tag_Multi_Domain",
	SnippetNumeric:        "Numeric",
	SnippetHybridTag:      "Hybrid_Tag",
}

// ParseSnippetType converts "type" attribute value of the snippet.
func ParseSnippetType(s string) (SnippetType, bool) {
	for i, name := range snippetTypes {
		if i > 0 && name == s {
			return SnippetType(i), true
		}
	}
	return SnippetUnknown, false
}

func (t SnippetType) String() string {
	if t > 0 && int(t) < len(snippetTypes) {
		return snippetTypes[t]
	}
	return "unknown"
}

// SnippetTypeOf returns variant of the snippet node.
func SnippetTypeOf(n *Node) SnippetType {
	t, _ := ParseSnippetType(n.Attr("type"))
	return t
}
