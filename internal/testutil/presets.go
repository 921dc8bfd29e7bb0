package testutil

import "github.com/langarchive/catalog/internal/catalog"

// WithStandardTestData adds a small archive: three languoids, two
// collaborators, one collection and three items.
func (b *Builder) WithStandardTestData() *Builder {
	return b.
		WithLanguoid("ainu1240", "Ainu", Text("level", "family"), Text("region", "Hokkaido")).
		WithLanguoid("ainu1252", "Hokkaido Ainu", RefTo("parent_id", "ainu1240"), Tags("alt_names", "Ainu Itak")).
		WithLanguoid("japa1256", "Japanese", Text("iso_code", "jpn")).
		WithCollaborator("C001", "Kayano Shigeru", RefTo("native_languages", "ainu1252"), Tags("roles", "speaker", "consultant")).
		WithCollaborator("C002", "Tamura Suzuko", RefTo("native_languages", "japa1256"), Tags("roles", "recorder")).
		WithCollection("AK", "Ainu oral literature", RefTo("collector_id", "C002"), RefTo("languages", "ainu1252"), Text("access_level", "open")).
		WithItem("AK-001", "Uwepeker: the owl", RefTo("collection_id", "AK"), RefTo("collector_id", "C002"),
			RefTo("languages", "ainu1252", "japa1256"), Tags("keywords", "folktale"), Text("access_level", "open"),
			Set("duration_minutes", catalog.Number("42")), Bool("digitized", true)).
		WithItem("AK-002", "Kamuy yukar", RefTo("collection_id", "AK"), RefTo("languages", "ainu1252"),
			Tags("keywords", "epic", "song"), Text("access_level", "restricted")).
		WithItem("AK-003", "Interview notes", RefTo("collection_id", "AK"), Bool("digitized", false))
}
