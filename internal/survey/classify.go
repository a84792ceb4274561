package survey

import (
	"strings"
)

// PageID identifies one rendered survey page.
type PageID string

const (
	PageSection1 PageID = "section1.html"
	PageSection2 PageID = "section2.html"
	PageSection3 PageID = "section3.html"
	PageSection4 PageID = "section4.html"
	PageSection5 PageID = "section5.html"
)

var pageSections = map[PageID]SectionID{
	PageSection1: Section1,
	PageSection2: Section2,
	PageSection3: Section3,
	PageSection4: Section4,
	PageSection5: Section5,
}

// PageFromPath takes the last path segment of a URL path, e.g. "/survey/section2.html".
func PageFromPath(path string) PageID {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if !strings.Contains(path, ".") && path != "" {
		path += ".html"
	}
	return PageID(path)
}

// PageFor returns the page that renders section id.
func PageFor(id SectionID) (PageID, bool) {
	for p, s := range pageSections {
		if s == id {
			return p, true
		}
	}
	return "", false
}

// Section returns the section a page renders.
func (p PageID) Section() (SectionID, bool) {
	s, ok := pageSections[p]
	return s, ok
}

// Coordinate locates a field inside the snapshot.
type Coordinate struct {
	Section    SectionID
	Subsection string
}

type classRule struct {
	subsection string
	ids        map[string]bool
	match      func(fieldID string) bool
}

func (r classRule) matches(fieldID string) bool {
	if r.ids[fieldID] {
		return true
	}
	return r.match != nil && r.match(fieldID)
}

func idSet(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// classification lists, per page, the subsections with explicitly known fields.
// Rules are tried in order.
var classification = map[PageID][]classRule{
	PageSection1: {
		{subsection: SubBasic, ids: idSet("datasetTitle", "evaluatorName", "evaluatorOrg", "dataprocessinglevel", "dataType", "evaluationType")},
		{subsection: SubUseCase, ids: idSet("useCaseDescription", "optimumDataCollection", "otherRequirements")},
		{subsection: SubSpatial, ids: idSet("pixelSize", "gridSize", "aggregationLevel")},
		{subsection: SubAOI, ids: idSet("aoiType", "aoiDropdown", "minLat", "maxLat", "minLon", "maxLon")},
	},
	PageSection2: {
		{subsection: SubDescriptives, ids: idSet("identifier", "datasetDescription", "datasetDescriptionLink", "metadataDoc", "languageDropdown", "languageOtherInput", KeywordsKey)},
		{subsection: SubMetadata, match: func(id string) bool {
			return strings.Contains(id, "metadata") || strings.Contains(id, "standard")
		}},
	},
	PageSection3: {
		{subsection: SubSpatialResolution, ids: idSet("pixelResolutionValue", "gridResolutionValue", "aggregationResolutionLevel", "optimalResolution", "spatialFit", "spatialDeviation")},
		{subsection: SubSpatialCoverage, ids: idSet("generalExtent", "generalExtentDetails", "aoiCoverage", "cloudCover", "coverageDeviation")},
		{subsection: SubTimeliness, ids: idSet("collectionDate", "temporalResolution", "latestUpdate", "temporalExtent", "temporalValidity", "optimumCollectionAuto", "temporalDeviation")},
	},
}

// Classify maps a field on page to its snapshot coordinate. Unlisted fields on a
// known page go to that section's general subsection; fields on an unknown page
// go to (unknown, general).
func Classify(fieldID string, page PageID) Coordinate {
	section, ok := page.Section()
	if !ok {
		return Coordinate{Section: SectionUnknown, Subsection: SubGeneral}
	}
	for _, rule := range classification[page] {
		if rule.matches(fieldID) {
			return Coordinate{Section: section, Subsection: rule.subsection}
		}
	}
	return Coordinate{Section: section, Subsection: SubGeneral}
}
