package pokeapi

// apiPokemon is the subset of /pokemon/{id} the quiz reads.
type apiPokemon struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Sprites apiSprites `json:"sprites"`
}

type apiSprites struct {
	FrontDefault string          `json:"front_default"`
	Other        apiOtherSprites `json:"other"`
}

type apiOtherSprites struct {
	OfficialArtwork apiArtwork `json:"official-artwork"`
}

type apiArtwork struct {
	FrontDefault string `json:"front_default"`
}
