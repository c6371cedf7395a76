package mcp

import "github.com/mark3labs/mcp-go/mcp"

var openToolDef = mcp.NewTool("deck_open",
	mcp.WithDescription("Open an .apkg deck package and return its cards. Closes any previously opened package."),
	mcp.WithString("path", mcp.Required(),
		mcp.Description("Filesystem path to the .apkg file")),
)

var cardsToolDef = mcp.NewTool("deck_cards",
	mcp.WithDescription("Return the current card list of the open package, including edits made this session."),
)

var addImageToolDef = mcp.NewTool("deck_add_image",
	mcp.WithDescription("Append a pasted image to a note field. Returns the data URI of the stored image."),
	mcp.WithNumber("note_id", mcp.Required(),
		mcp.Description("Note id the field belongs to")),
	mcp.WithString("field", mcp.Required(),
		mcp.Description("Field name as defined by the note's model")),
	mcp.WithString("data", mcp.Required(),
		mcp.Description("Base64-encoded image bytes")),
	mcp.WithString("mime",
		mcp.Description("Image MIME type (image/png, image/jpeg, image/gif, image/webp, image/bmp); defaults to image/png")),
)

var removeImageToolDef = mcp.NewTool("deck_remove_image",
	mcp.WithDescription("Remove the Nth image tag from a note field."),
	mcp.WithNumber("note_id", mcp.Required(),
		mcp.Description("Note id the field belongs to")),
	mcp.WithString("field", mcp.Required(),
		mcp.Description("Field name as defined by the note's model")),
	mcp.WithNumber("index", mcp.Required(),
		mcp.Description("Zero-based index of the image tag to remove")),
)

var updateFieldToolDef = mcp.NewTool("deck_update_field",
	mcp.WithDescription("Replace a note field's value. Inlined image URIs in the value are converted back to media references before storage."),
	mcp.WithNumber("note_id", mcp.Required(),
		mcp.Description("Note id the field belongs to")),
	mcp.WithString("field", mcp.Required(),
		mcp.Description("Field name as defined by the note's model")),
	mcp.WithString("value", mcp.Required(),
		mcp.Description("New field content (HTML)")),
)

var createCardToolDef = mcp.NewTool("deck_create_card",
	mcp.WithDescription("Create a new empty card for a model, appended at the end or inserted at a position."),
	mcp.WithNumber("model_id", mcp.Required(),
		mcp.Description("Id of the model (note type) for the new card")),
	mcp.WithNumber("position",
		mcp.Description("Optional zero-based position to insert at; later cards shift down")),
)

var deleteCardToolDef = mcp.NewTool("deck_delete_card",
	mcp.WithDescription("Delete a card and its note; later cards shift up to keep positions dense."),
	mcp.WithNumber("note_id", mcp.Required(),
		mcp.Description("Note id of the card to delete")),
)

var exportToolDef = mcp.NewTool("deck_export",
	mcp.WithDescription("Write the edited deck back to an .apkg file. Without a path the target follows the save_mode setting."),
	mcp.WithString("path",
		mcp.Description("Optional output path; defaults per save_mode (copy writes <name>_edited.apkg, overwrite replaces the original)")),
)

var closeToolDef = mcp.NewTool("deck_close",
	mcp.WithDescription("Close the open package and discard its working files. Unexported edits are lost."),
)
