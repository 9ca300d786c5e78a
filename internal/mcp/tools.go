package mcp

import "github.com/mark3labs/mcp-go/mcp"

// rankDrinksTool defines the rank_drinks MCP tool.
var rankDrinksTool = mcp.NewTool("rank_drinks",
	mcp.WithDescription("Rank the drink catalog by semantic similarity to the given ingredients and moods. Returns the best matches with scores."),
	mcp.WithString("ingredients",
		mcp.Description("Comma-separated ingredients the patron likes, e.g. \"lime, tequila\""),
	),
	mcp.WithString("moods",
		mcp.Description("Comma-separated moods the drink should fit, e.g. \"refreshed, celebratory\""),
	),
)

// getDrinkTool defines the get_drink MCP tool.
var getDrinkTool = mcp.NewTool("get_drink",
	mcp.WithDescription("Get a drink from the catalog by id, including ingredients, mood tags and recipe link."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Drink id as returned by rank_drinks"),
	),
)

// startConversationTool defines the start_conversation MCP tool.
var startConversationTool = mcp.NewTool("start_conversation",
	mcp.WithDescription("Start a conversation with the bartender. Returns the greeting and a session id for send_message."),
	mcp.WithString("location",
		mcp.Description("Where the patron is"),
	),
	mcp.WithString("weather",
		mcp.Description("Current weather at the patron's location"),
	),
	mcp.WithString("time",
		mcp.Description("Patron's local time"),
	),
)

// sendMessageTool defines the send_message MCP tool.
var sendMessageTool = mcp.NewTool("send_message",
	mcp.WithDescription("Answer the bartender. Returns the next question, or the recommendation once the bartender has heard enough."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id from start_conversation"),
	),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The patron's answer"),
	),
)
