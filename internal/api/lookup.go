package api

import (
	"context"
	"net/http"
	"strings"

	"nutrihelper/internal/core"
)

type foodInfoRequest struct {
	Query string `json:"query"`
}

type foodInfoResponse struct {
	ProductName   string  `json:"ProductName"`
	Calories      float64 `json:"Calories"`
	Fat           float64 `json:"Fat"`
	Carbohydrates float64 `json:"Carbohydrates"`
	Sugars        float64 `json:"Sugars"`
	Protein       float64 `json:"Protein"`
	Fiber         float64 `json:"Fiber"`
	Image         string  `json:"Image"`
}

type recipeRequest struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
}

type recipeResponse struct {
	Title     string `json:"title"`
	Image     string `json:"image"`
	Nutrition struct {
		Nutrients []struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		} `json:"nutrients"`
	} `json:"nutrition"`
}

// LookupFood asks the backend's nutrition database about a free-text query.
func (c *Client) LookupFood(ctx context.Context, cred Credential, query string) (core.FoodInfo, error) {
	var resp foodInfoResponse
	err := c.doAuth(ctx, http.MethodPost, "/api/food-info-nutritionix", cred, foodInfoRequest{Query: strings.TrimSpace(query)}, &resp)
	if err != nil {
		return core.FoodInfo{}, err
	}
	return core.FoodInfo(resp), nil
}

// RecommendRecipes returns recipes matching the macro targets. Nutrients
// missing from a recipe read as zero.
func (c *Client) RecommendRecipes(ctx context.Context, cred Credential, t core.MacroTargets) ([]core.Recipe, error) {
	req := recipeRequest{
		Calories:      t.Calories,
		Protein:       t.Protein,
		Fat:           t.Fat,
		Carbohydrates: t.Carbohydrates,
	}
	var resp []recipeResponse
	if err := c.doAuth(ctx, http.MethodPost, "/api/recommend-recipes", cred, req, &resp); err != nil {
		return nil, err
	}

	recipes := make([]core.Recipe, 0, len(resp))
	for _, r := range resp {
		recipe := core.Recipe{Title: r.Title, Image: r.Image}
		for _, n := range r.Nutrition.Nutrients {
			switch n.Name {
			case "Calories":
				recipe.Nutrition.Calories = n.Amount
			case "Protein":
				recipe.Nutrition.Protein = n.Amount
			case "Fat":
				recipe.Nutrition.Fat = n.Amount
			case "Carbohydrates":
				recipe.Nutrition.Carbohydrates = n.Amount
			}
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}
